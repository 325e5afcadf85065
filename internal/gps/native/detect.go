package native

import "github.com/dcreager/buzzy-sub000/internal/gps/osfacade"

// Platform detection markers (spec §6): each distro is probed by
// checking for a filesystem marker file only that distro installs.
const (
	archMarker    = "/etc/arch-release"
	debianMarker  = "/etc/debian_version"
	redHatMarker  = "/etc/redhat-release"
	homebrewMarker = "/usr/local/bin/brew"
)

// DetectArch reports whether the host looks like an Arch system.
func DetectArch(os osfacade.VTable) bool { return os.FileExists(archMarker) }

// DetectDebian reports whether the host looks like a Debian system.
func DetectDebian(os osfacade.VTable) bool { return os.FileExists(debianMarker) }

// DetectRedHat reports whether the host looks like a Red Hat system.
func DetectRedHat(os osfacade.VTable) bool { return os.FileExists(redHatMarker) }

// DetectHomebrew reports whether the host has Homebrew installed.
func DetectHomebrew(os osfacade.VTable) bool { return os.FileExists(homebrewMarker) }
