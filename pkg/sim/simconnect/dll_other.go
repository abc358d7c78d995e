//go:build !windows

package simconnect

// DLL is unavailable outside Windows.
type DLL struct{ API }

// DLLCandidates is empty outside Windows.
func DLLCandidates() []string { return nil }

// FindDLL always fails outside Windows.
func FindDLL() (string, error) { return "", ErrNotLoaded }

// LoadDLL always fails outside Windows.
func LoadDLL(string) (*DLL, error) { return nil, ErrNotLoaded }
