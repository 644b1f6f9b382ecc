package model

import (
	"strings"
	"testing"
)

func TestResolveStorage_AutoVolume(t *testing.T) {
	t.Parallel()

	r, err := ResolveStorage("demo", RoleApp, StorageAutoVolume{})
	if err != nil {
		t.Fatalf("ResolveStorage: %v", err)
	}
	if r.Volume == nil || r.Volume.External {
		t.Fatalf("expected non-external volume declaration, got %+v", r.Volume)
	}
	if r.LinkSource != "/soft/app" {
		t.Errorf("LinkSource = %q", r.LinkSource)
	}
	if r.LinkTarget != r.AttachPath {
		t.Errorf("LinkTarget %q must point at the attach path %q", r.LinkTarget, r.AttachPath)
	}
	if r.BuildTime {
		t.Errorf("volume-backed storage must not be build-time visible")
	}

	// Resolution must be stable across invocations.
	again, err := ResolveStorage("demo", RoleApp, StorageAutoVolume{})
	if err != nil {
		t.Fatalf("ResolveStorage: %v", err)
	}
	if again.Volume.Name != r.Volume.Name {
		t.Fatalf("volume name changed across resolutions: %q vs %q", r.Volume.Name, again.Volume.Name)
	}
}

func TestResolveStorage_ManualVolume(t *testing.T) {
	t.Parallel()

	r, err := ResolveStorage("demo", RoleData, StorageManualVolume{Volume: "my-vol"})
	if err != nil {
		t.Fatalf("ResolveStorage: %v", err)
	}
	if r.Volume == nil || r.Volume.Name != "my-vol" || !r.Volume.External {
		t.Fatalf("expected external volume my-vol, got %+v", r.Volume)
	}

	if _, err := ResolveStorage("demo", RoleData, StorageManualVolume{}); err == nil ||
		!strings.Contains(err.Error(), "requires a volume name") {
		t.Fatalf("empty manual volume error = %v", err)
	}
}

func TestResolveStorage_Host(t *testing.T) {
	t.Parallel()

	// The host path is used verbatim; no existence check happens here.
	r, err := ResolveStorage("demo", RoleWorkspace, StorageHost{Path: "/srv/does-not-exist"})
	if err != nil {
		t.Fatalf("ResolveStorage: %v", err)
	}
	if r.HostPath != "/srv/does-not-exist" {
		t.Errorf("HostPath = %q", r.HostPath)
	}
	if r.Volume != nil {
		t.Errorf("host backing must not declare a volume")
	}
	if r.BuildTime {
		t.Errorf("bind paths only exist at runtime")
	}
}

func TestResolveStorage_Image(t *testing.T) {
	t.Parallel()

	r, err := ResolveStorage("demo", RoleApp, StorageImage{})
	if err != nil {
		t.Fatalf("ResolveStorage: %v", err)
	}
	if r.Volume != nil || r.HostPath != "" || r.AttachPath != "" {
		t.Fatalf("image backing must not declare mounts: %+v", r)
	}
	if !r.BuildTime {
		t.Errorf("image backing is build-time visible")
	}
	if r.LinkTarget != "/hard/volume/app" {
		t.Errorf("LinkTarget = %q", r.LinkTarget)
	}
}

func TestResolveMount(t *testing.T) {
	t.Parallel()

	r, err := ResolveMount("demo", "models", Mount{Spec: StorageAutoVolume{}, Destination: "/opt/models"})
	if err != nil {
		t.Fatalf("ResolveMount: %v", err)
	}
	if r.LinkSource != "/opt/models" {
		t.Errorf("LinkSource = %q, want the mount destination", r.LinkSource)
	}
	if r.Volume == nil {
		t.Fatalf("expected a volume declaration")
	}

	if _, err := ResolveMount("demo", "models", Mount{Spec: StorageAutoVolume{}}); err == nil ||
		!strings.Contains(err.Error(), "destination is required") {
		t.Fatalf("missing destination error = %v", err)
	}
}

func TestEnvAlias(t *testing.T) {
	t.Parallel()

	if EnvAlias(RoleData) != "DENV_DATA" {
		t.Fatalf("EnvAlias(data) = %q", EnvAlias(RoleData))
	}
	if EnvAlias("models") != "" {
		t.Fatalf("free-form mounts have no alias")
	}
}
