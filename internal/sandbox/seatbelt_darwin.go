//go:build darwin

package sandbox

func seatbeltAvailable() bool { return true }
