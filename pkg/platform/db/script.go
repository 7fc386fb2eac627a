package db

import (
	"context"
	"strings"

	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/utils"
)

// Phase selects the setup or the teardown scripts of a fixture.
type Phase string

const (
	PhasePre  Phase = models.PreSQLSuffix
	PhasePost Phase = models.PostSQLSuffix
)

// RunFixtureScripts runs the <db>_pre.sql or <db>_post.sql script of every
// database the fixture configures, in database name order. It stops at the first failure.
func (p *Pool) RunFixtureScripts(ctx context.Context, fixture models.TestFixture, phase Phase) error {
	for _, name := range fixture.Config.DatabaseNames() {
		path := fixture.SQLScriptPath(name, string(phase))
		if err := p.RunScript(ctx, name, fixture.Config.DatabaseConfigurations[name], path); err != nil {
			return err
		}
	}
	return nil
}

// readScript returns the script content; blank scripts count as missing.
func readScript(path string) (string, bool, error) {
	data, found, err := utils.ReadFileIfExists(path)
	if err != nil || !found {
		return "", false, err
	}
	script := strings.TrimSpace(string(data))
	return script, script != "", nil
}
