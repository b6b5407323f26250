package shell

// Command returns the argv that makes the detected shell run script.
func (r *DetectionResult) Command(script string) []string {
	switch r.Shell {
	case ShellCmd:
		return []string{r.ShellPath, "/C", script}
	case ShellPowerShell:
		return []string{r.ShellPath, "-NoProfile", "-NonInteractive", "-Command", script}
	default:
		return []string{r.ShellPath, "-c", script}
	}
}
