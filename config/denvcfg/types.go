// Package denvcfg defines the configuration schema (structs) for denv.yml.
// This package handles YAML -> struct deserialization, environment-variable
// substitution, semantic validation and conversion to the domain model.
package denvcfg

// Root is the root structure of denv.yml.
type Root struct {
	Stage1 *Stage `yaml:"stage_1"`
	Stage2 *Stage `yaml:"stage_2"`
}

// Stage is the document form of one build stage.
type Stage struct {
	Image *Image `yaml:"image"`
	SSH   *SSH   `yaml:"ssh"`
	Proxy *Proxy `yaml:"proxy"`
	APT   *APT   `yaml:"apt"`
	// Device is "cpu" or "gpu".
	Device string `yaml:"device"`
	// Environment is an ordered list of KEY=VALUE strings.
	Environment []string `yaml:"environment"`
	// Storage maps the fixed roles app/data/workspace. Stage 2 only.
	Storage map[string]Storage `yaml:"storage"`
	// Mount maps user-chosen names to a storage backing plus destination.
	Mount map[string]Mount `yaml:"mount"`
	// Custom maps lifecycle hook names to script entry lists.
	Custom map[string][]string `yaml:"custom"`
}

// Image holds the image references of a stage.
type Image struct {
	Base   string `yaml:"base"`   // base image reference, stage 1 only
	Output string `yaml:"output"` // output image tag, mandatory
}

// SSH is the document form of the sshd block.
type SSH struct {
	Enable   *bool           `yaml:"enable"`
	Port     int             `yaml:"port"`      // sshd port inside the container
	HostPort int             `yaml:"host_port"` // port published on the host
	Users    map[string]User `yaml:"users"`
}

// User is the document form of one SSH user. pubkey_file/pubkey_text and
// privkey_file/privkey_text are mutually exclusive pairs.
type User struct {
	Password    string `yaml:"password"`
	UID         int    `yaml:"uid"`
	PubkeyFile  string `yaml:"pubkey_file"`
	PubkeyText  string `yaml:"pubkey_text"`
	PrivkeyFile string `yaml:"privkey_file"`
	PrivkeyText string `yaml:"privkey_text"`
}

// Proxy is the document form of the proxy block.
type Proxy struct {
	Address          string `yaml:"address"`
	Port             int    `yaml:"port"`
	EnableGlobal     bool   `yaml:"enable_global"`
	RemoveAfterBuild bool   `yaml:"remove_after_build"`
	HTTPS            bool   `yaml:"use_https"`
}

// APT is the document form of the apt block.
type APT struct {
	Source    string `yaml:"source"` // named mirror or raw sources.list URL
	UseProxy  bool   `yaml:"use_proxy"`
	KeepProxy bool   `yaml:"keep_proxy"`
}

// Storage is the document form of a storage backing. Type selects the
// variant: auto-volume | manual-volume | host | image.
type Storage struct {
	Type string `yaml:"type"`
	// Volume is the user-chosen volume name for manual-volume.
	Volume string `yaml:"volume"`
	// Path is the host path for host backings.
	Path string `yaml:"path"`
}

// Mount is the document form of a user-named mount.
type Mount struct {
	Storage `yaml:",inline"`
	// Destination is the absolute in-container path.
	Destination string `yaml:"destination"`
}
