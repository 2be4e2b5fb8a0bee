// Package cli implements the command-line interface of platform-installer.
//
// # Overview
//
// platform-installer brings up a single-node k3s cluster and deploys the
// platform charts on it. Every lifecycle command runs its environment checks,
// gathers configuration from a YAML file or interactive prompts, and then
// runs an ordered sequence of idempotent steps.
//
// # Commands
//
// install - Install k3s and the platform:
//
//	platform-installer install [--config FILE] [--lightweight]
//
// upgrade - Upgrade to the build shipped with the installer:
//
//	platform-installer upgrade [--config FILE]
//
// The installed build is read from the impt-versions configmap. Equal builds
// end the run with nothing to do; an older target is refused.
//
// uninstall - Remove the platform:
//
//	platform-installer uninstall [--delete-data] [--yes]
//
// version - Print the bundled product version and build:
//
//	platform-installer version
//
// change-password - Set a platform user's password:
//
//	platform-installer change-password --username a@b.c --password 'Qwerty12345%'
//
// # Global Flags
//
//	--log-level   Log level: debug, info, warn, error (default: info)
//	--log-file    Install log (default: /var/log/platform-installer/install.log)
//
// # Environment Variables
//
//	LOG_LEVEL                   Log level
//	INSTALL_LOG_FILE_PATH       Install log location
//	PLATFORM_REGISTRY_ADDRESS   Default image registry
//	EXTERNAL_REGISTRY_ADDRESS   Default external registry
//	PLATFORM_CHECK_OS           "false" skips the OS check
//	FEATURE_FLAG_*              Feature flags (true: y, yes, t, true, on, 1)
//
// # Exit Codes
//
//	0    Success, or aborted at a prompt
//	1    Failure; details are in the install log
//	2    Invalid arguments
//	130  Interrupted (SIGINT)
package cli
