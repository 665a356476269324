package cli

// ExitError carries a process exit code alongside the underlying error.
// main inspects it through the ExitCode interface before calling os.Exit.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ExitError) ExitCode() int {
	if e == nil || e.Code == 0 {
		return 1
	}
	return e.Code
}
