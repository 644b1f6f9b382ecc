package gen

import (
	"context"
	"fmt"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

// verifyCompose round-trips the emitted document through the compose loader
// so a rendering bug surfaces at configure time instead of at the user's
// `docker compose` invocation.
func verifyCompose(content []byte) error {
	cdm := types.ConfigDetails{
		WorkingDir: ".",
		ConfigFiles: []types.ConfigFile{
			{Filename: ComposeFileName, Content: content},
		},
		Environment: map[string]string{},
	}

	_, err := loader.LoadWithContext(context.Background(), cdm, func(o *loader.Options) {
		o.SetProjectName("denv-verify", false)
		o.SkipInclude = true
		o.SkipValidation = false
	})
	if err != nil {
		return fmt.Errorf("compose loader: %w", err)
	}
	return nil
}
