// Package classifier decides from Cordova's textual output whether a command failed.
//
// The Cordova CLI offers no machine-readable result when it is driven through
// an interactive shell, and the shell's own exit status only reflects the
// final "exit". Failure is therefore recognised heuristically, line by line,
// by a Strategy. RuleSet is the default strategy: an ordered list of
// regular expressions, normally built from the [classifier] section of
// config.toml.
//
//	rules, err := classifier.NewRuleSet(cfg.Classifier.ErrorPatterns, cfg.Classifier.IgnoreCase)
//	l := classifier.NewListener(rules)
//	// ... pass l to system.ProcessRunner.Start, wait for the process ...
//	if msg := l.ErrorMessage(); msg != "" {
//	    // cordova reported a failure
//	}
//
// ErrorMessage is only meaningful once the process has exited.
package classifier
