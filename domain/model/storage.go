package model

import (
	"fmt"
	"path"

	"github.com/denvops/denv/internal/naming"
)

// In-container path conventions. Logical storage paths live under SoftRoot
// and are soft links to their backing location: volume and bind backings
// attach under MountRoot, in-image backings live under HardRoot. Consumers
// only ever see the /soft path, so the backing can change without moving
// anything they reference.
const (
	SoftRoot  = "/soft"
	HardRoot  = "/hard/volume"
	MountRoot = "/mnt/denv"
)

// EnvAlias returns the well-known environment variable name that resolves to
// the logical path of a fixed storage role (e.g. DENV_DATA -> /soft/data).
// Empty for free-form mount names.
func EnvAlias(role string) string {
	switch role {
	case RoleApp:
		return "DENV_APP"
	case RoleData:
		return "DENV_DATA"
	case RoleWorkspace:
		return "DENV_WORKSPACE"
	}
	return ""
}

// SoftPath returns the stable logical path of a role.
func SoftPath(role string) string { return path.Join(SoftRoot, role) }

// HardPath returns the in-image backing path of a role.
func HardPath(role string) string { return path.Join(HardRoot, role) }

// MountPath returns the attach point of a volume or bind backing a role.
func MountPath(role string) string { return path.Join(MountRoot, role) }

// StorageSpec is a closed sum over the supported storage backings. The
// resolver switches exhaustively over the four variants; a typo'd type name
// in the document fails structuring instead of falling through to a default.
type StorageSpec interface {
	storageSpec()
	// Type returns the document-facing type name of the variant.
	Type() string
}

// StorageAutoVolume is an engine-managed volume whose name is synthesized
// deterministically from project and role.
type StorageAutoVolume struct{}

// StorageManualVolume is an engine-managed volume with a user-chosen name.
type StorageManualVolume struct {
	Volume string
}

// StorageHost binds an explicit host path. The path is used verbatim; no
// existence check or creation happens at configure time.
type StorageHost struct {
	Path string
}

// StorageImage bakes the data into the image. No compose declaration; the
// logical path links to an in-image directory available at build time.
type StorageImage struct{}

func (StorageAutoVolume) storageSpec()   {}
func (StorageManualVolume) storageSpec() {}
func (StorageHost) storageSpec()         {}
func (StorageImage) storageSpec()        {}

func (StorageAutoVolume) Type() string   { return "auto-volume" }
func (StorageManualVolume) Type() string { return "manual-volume" }
func (StorageHost) Type() string         { return "host" }
func (StorageImage) Type() string        { return "image" }

// VolumeDecl is a named volume declaration for the compose document.
type VolumeDecl struct {
	Name string
	// External marks a pre-existing (manual) volume the engine must not create.
	External bool
}

// ResolvedStorage is the outcome of resolving one role against its spec:
// the optional compose declaration plus the soft-link source/target pair.
type ResolvedStorage struct {
	Role string
	// LinkSource is the stable logical path consumers use.
	LinkSource string
	// LinkTarget is where the link points, chosen by the backing.
	LinkTarget string
	// Volume is set for auto-volume and manual-volume backings.
	Volume *VolumeDecl
	// HostPath is set for host backings.
	HostPath string
	// AttachPath is the in-container path the volume or bind attaches at.
	// Empty for image backings, which need no mount.
	AttachPath string
	// BuildTime reports whether LinkSource is usable during image build.
	// Only image backings are; volume and bind paths appear at container
	// start.
	BuildTime bool
}

// ResolveStorage maps one named role and its spec to compose declarations and
// the soft-link pair. The result is a pure function of (project, role, spec):
// regenerating artifacts from an unchanged document must not rename volumes
// or move mount targets.
func ResolveStorage(project, role string, spec StorageSpec) (ResolvedStorage, error) {
	r := ResolvedStorage{Role: role, LinkSource: SoftPath(role)}
	switch s := spec.(type) {
	case StorageAutoVolume:
		r.Volume = &VolumeDecl{Name: naming.VolumeName(project, role)}
		r.AttachPath = MountPath(role)
		r.LinkTarget = r.AttachPath
	case StorageManualVolume:
		if s.Volume == "" {
			return ResolvedStorage{}, fmt.Errorf("storage %s: manual-volume requires a volume name", role)
		}
		r.Volume = &VolumeDecl{Name: s.Volume, External: true}
		r.AttachPath = MountPath(role)
		r.LinkTarget = r.AttachPath
	case StorageHost:
		if s.Path == "" {
			return ResolvedStorage{}, fmt.Errorf("storage %s: host requires a path", role)
		}
		r.HostPath = s.Path
		r.AttachPath = MountPath(role)
		r.LinkTarget = r.AttachPath
	case StorageImage:
		r.LinkTarget = HardPath(role)
		r.BuildTime = true
	default:
		return ResolvedStorage{}, fmt.Errorf("storage %s: unknown spec %T", role, spec)
	}
	return r, nil
}

// ResolveMount resolves a user-named mount. The link source is the
// user-chosen destination path instead of a fixed /soft role path.
func ResolveMount(project, name string, m Mount) (ResolvedStorage, error) {
	if m.Destination == "" {
		return ResolvedStorage{}, fmt.Errorf("mount %s: destination is required", name)
	}
	r, err := ResolveStorage(project, name, m.Spec)
	if err != nil {
		return ResolvedStorage{}, err
	}
	r.LinkSource = m.Destination
	return r, nil
}
