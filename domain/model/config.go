// Package model defines the typed internal configuration model produced by
// config/denvcfg and consumed by the resolver, validators and emitter.
package model

// Device accelerator kinds.
const (
	DeviceCPU = "cpu"
	DeviceGPU = "gpu"
)

// Lifecycle hook names in execution order.
const (
	HookOnBuild     = "on_build"
	HookOnFirstRun  = "on_first_run"
	HookOnEveryRun  = "on_every_run"
	HookOnUserLogin = "on_user_login"
)

// Hooks lists all lifecycle hook names in a stable order.
var Hooks = []string{HookOnBuild, HookOnFirstRun, HookOnEveryRun, HookOnUserLogin}

// IsHook reports whether name is a known lifecycle hook.
func IsHook(name string) bool {
	for _, h := range Hooks {
		if h == name {
			return true
		}
	}
	return false
}

// Fixed storage role names (stage-2 storage block).
const (
	RoleApp       = "app"
	RoleData      = "data"
	RoleWorkspace = "workspace"
)

// StorageRoles lists the fixed storage roles in a stable order.
var StorageRoles = []string{RoleApp, RoleData, RoleWorkspace}

// StageNum identifies one of the two build stages.
type StageNum int

const (
	Stage1 StageNum = 1
	Stage2 StageNum = 2
)

// Config is the fully structured and validated configuration of a project.
type Config struct {
	// Project is the project name, derived from the project directory.
	Project string
	Stage1  Stage
	Stage2  Stage
}

// Stage holds the effective settings of one build stage after cross-stage
// inheritance has been applied. SSH/Proxy/APT/Device follow the
// override-if-present rule; Environment, Storage, Mount and Custom are
// independent per stage.
type Stage struct {
	Num   StageNum
	Image Image
	SSH   *SSH
	Proxy *Proxy
	APT   APT
	// Device is cpu or gpu.
	Device string
	// Environment preserves the order of the KEY=VALUE list in the document.
	Environment EnvMap
	// Storage maps the fixed roles (app, data, workspace) to their backing.
	// Only populated for stage 2.
	Storage map[string]StorageSpec
	// Mount maps user-chosen mount names to their backing and destination.
	Mount map[string]Mount
	// Custom maps lifecycle hook names to ordered script entries.
	Custom map[string][]ScriptEntry
}

// Image identifies input and output image references of a stage.
type Image struct {
	// Base is the base image reference. Stage 1 only; stage 2 always
	// builds on the stage-1 output.
	Base string
	// Output is the tag of the image this stage builds. Mandatory.
	Output string
}

// SSH configures the in-container SSH daemon of a stage.
type SSH struct {
	Enable bool
	// Port is the sshd port inside the container.
	Port int
	// HostPort is the port published on the host.
	HostPort int
	// Users lists the accounts to provision, sorted by name so default UID
	// assignment is stable across regeneration.
	Users []SSHUser
}

// DefaultUID is the base UID assigned to SSH users that do not specify one.
// Kept out of the system account range.
const DefaultUID = 1000

// SSHUser describes one SSH account to provision.
//
// PubkeyFile/PubkeyText are mutually exclusive, as are PrivkeyFile/PrivkeyText.
// A user needs at least one of password or any key field. A given public key
// and private key are never assumed to be a matching pair: the public key is
// trusted as-is, and if a private key is given a public key is derived from it
// and trusted in addition.
type SSHUser struct {
	Name        string
	Password    string
	UID         int
	PubkeyFile  string
	PubkeyText  string
	PrivkeyFile string
	PrivkeyText string
}

// HasKeyMaterial reports whether any key-source field is set.
func (u SSHUser) HasKeyMaterial() bool {
	return u.PubkeyFile != "" || u.PubkeyText != "" || u.PrivkeyFile != "" || u.PrivkeyText != ""
}

// Proxy configures an HTTP proxy used during build and optionally at runtime.
type Proxy struct {
	Address string
	Port    int
	// EnableGlobal exports the proxy variables for the whole build.
	EnableGlobal bool
	// RemoveAfterBuild unsets the proxy variables in the final image.
	RemoveAfterBuild bool
	HTTPS            bool
}

// APT selects the package repository source used inside the build.
type APT struct {
	// Source is a named mirror (e.g. "tuna") or a raw sources.list URL.
	Source string
	// UseProxy routes apt traffic through the configured proxy.
	UseProxy bool
	// KeepProxy leaves the apt proxy configuration in the image.
	KeepProxy bool
}

// Mount is a user-named mount: a storage backing plus its destination path
// inside the container.
type Mount struct {
	Spec StorageSpec
	// Destination is the absolute in-container path the mount appears at.
	Destination string
}
