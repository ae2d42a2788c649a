package validator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/port-tools/portcheck/internal/discover"
	"github.com/port-tools/portcheck/internal/errors"
)

// fakeAPI implements EntityAPI with configurable behavior per entity.
type fakeAPI struct {
	existing    map[string]bool // key: blueprint/identifier
	required    []string        // blueprint schema required properties
	schemaErr   error
	lookupErr   error
	dryRunErr   error
	schemaCalls atomic.Int32
	lookupCalls atomic.Int32
	dryRunCalls atomic.Int32
}

func (f *fakeAPI) BlueprintSchema(_ context.Context, _ string) ([]string, error) {
	f.schemaCalls.Add(1)
	if f.schemaErr != nil {
		return nil, f.schemaErr
	}
	return f.required, nil
}

func (f *fakeAPI) EntityExists(_ context.Context, blueprint, identifier string) (bool, error) {
	f.lookupCalls.Add(1)
	if f.lookupErr != nil {
		return false, f.lookupErr
	}
	return f.existing[blueprint+"/"+identifier], nil
}

func (f *fakeAPI) ValidateEntity(_ context.Context, _ map[string]any) error {
	f.dryRunCalls.Add(1)
	return f.dryRunErr
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func newValidator(api EntityAPI) *Validator {
	logger := hclog.NewNullLogger()
	return New(logger, api, discover.New(logger, []string{".github"}))
}

const validDoc = `
entity:
  identifier: svc-1
  blueprint: service
properties:
  owner: platform-team
`

func TestRun_AllFilesPass(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"a.yaml": validDoc,
		"b.yaml": validDoc,
	})

	api := &fakeAPI{existing: map[string]bool{"service/svc-1": true}}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.True(t, report.Passed())
	require.Equal(t, 2, report.Total())
	require.Equal(t, 0, report.Failed())
	require.Equal(t, int32(2), api.lookupCalls.Load())
	require.Equal(t, int32(2), api.dryRunCalls.Load())
}

func TestRun_MissingEntityNamesThePair(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"entity.yaml": `
entity:
  identifier: svc-missing
  blueprint: service
`,
	})

	api := &fakeAPI{existing: map[string]bool{}}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.False(t, report.Passed())
	require.Equal(t, 1, report.Failed())

	require.Len(t, report.Results, 1)
	require.Len(t, report.Results[0].Errors, 1)
	require.Contains(t, report.Results[0].Errors[0], "svc-missing")
	require.Contains(t, report.Results[0].Errors[0], "service")

	// A missing entity must skip the dry-run stage.
	require.Equal(t, int32(0), api.dryRunCalls.Load())
}

func TestRun_ShapeFailureSkipsRemoteCalls(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"bad.yaml": `
entity:
  blueprint: service
`,
	})

	api := &fakeAPI{existing: map[string]bool{}}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())
	require.Equal(t, int32(0), api.schemaCalls.Load())
	require.Equal(t, int32(0), api.lookupCalls.Load())
	require.Equal(t, int32(0), api.dryRunCalls.Load())
}

func TestRun_BlueprintRequiredPropertiesEnforced(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"entity.yaml": validDoc})

	api := &fakeAPI{
		existing: map[string]bool{"service/svc-1": true},
		required: []string{"owner", "tier"},
	}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())

	// The document carries 'owner' but not 'tier'.
	require.Len(t, report.Results[0].Errors, 1)
	require.Contains(t, report.Results[0].Errors[0], "tier")
	require.NotContains(t, report.Results[0].Errors[0], "owner")

	// A failed required-properties check skips the remaining stages.
	require.Equal(t, int32(0), api.lookupCalls.Load())
	require.Equal(t, int32(0), api.dryRunCalls.Load())
}

func TestRun_BlueprintSchemaFetchErrorSkipsLaterStages(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"entity.yaml": validDoc})

	api := &fakeAPI{schemaErr: fmt.Errorf("%w: blueprint 'service': HTTP 503", errors.ErrLookup)}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())
	require.Contains(t, report.Results[0].Errors[0], "entity lookup failed")
	require.Equal(t, int32(0), api.lookupCalls.Load())
	require.Equal(t, int32(0), api.dryRunCalls.Load())
}

func TestRun_EmptyFileIsAFailure(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"empty.yaml":    "",
		"comments.yaml": "# nothing here\n",
	})

	api := &fakeAPI{}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, 2, report.Failed())
	for _, res := range report.Results {
		require.Len(t, res.Errors, 1)
		require.Contains(t, res.Errors[0], "no YAML documents")
	}
	require.Equal(t, int32(0), api.schemaCalls.Load())
}

func TestRun_LookupErrorDistinctFromNotFound(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"entity.yaml": validDoc})

	api := &fakeAPI{lookupErr: fmt.Errorf("%w: HTTP 503", errors.ErrLookup)}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())
	require.Contains(t, report.Results[0].Errors[0], "entity lookup failed")
	require.NotContains(t, report.Results[0].Errors[0], "does not exist")
}

func TestRun_DryRunRejectionRecorded(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"entity.yaml": validDoc})

	api := &fakeAPI{
		existing:  map[string]bool{"service/svc-1": true},
		dryRunErr: fmt.Errorf("%w: HTTP 422", errors.ErrRemoteValidation),
	}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())
	require.Contains(t, report.Results[0].Errors[0], "svc-1")
	require.Contains(t, report.Results[0].Errors[0], "remote validation rejected document")
}

func TestRun_OneBadFileDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"a.yaml": `
entity:
  identifier: svc-missing
  blueprint: service
`,
		"b.yaml": validDoc,
	})

	api := &fakeAPI{existing: map[string]bool{"service/svc-1": true}}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, 2, report.Total())
	require.Equal(t, 1, report.Failed())

	require.False(t, report.Results[0].Passed())
	require.True(t, report.Results[1].Passed())
}

func TestRun_ResultsSortedByPath(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"c.yaml": validDoc,
		"a.yaml": validDoc,
		"b.yaml": validDoc,
	})

	api := &fakeAPI{existing: map[string]bool{"service/svc-1": true}}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "c.yaml"),
	}, []string{report.Results[0].Path, report.Results[1].Path, report.Results[2].Path})
}

func TestRun_MissingPathRecordedAsFailure(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{"a.yaml": validDoc})
	missing := filepath.Join(dir, "nope.yaml")

	api := &fakeAPI{existing: map[string]bool{"service/svc-1": true}}
	report, err := newValidator(api).Run(context.Background(), []string{missing, filepath.Join(dir, "a.yaml")})

	require.NoError(t, err)
	require.Equal(t, 2, report.Total())
	require.Equal(t, 1, report.Failed())
}

func TestRun_ZeroFilesPasses(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	report, err := newValidator(api).Run(context.Background(), []string{t.TempDir()})

	require.NoError(t, err)
	require.True(t, report.Passed())
	require.Equal(t, 0, report.Total())
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"a.yaml": validDoc,
		"b.yaml": `
entity:
  identifier: svc-missing
  blueprint: service
`,
	})

	api := &fakeAPI{existing: map[string]bool{"service/svc-1": true}}
	v := newValidator(api)

	first, err := v.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	second, err := v.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestRun_MultiDocumentFile(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, map[string]string{
		"multi.yaml": `
entity:
  identifier: svc-1
  blueprint: service
---
entity:
  identifier: svc-missing
  blueprint: service
`,
	})

	api := &fakeAPI{existing: map[string]bool{"service/svc-1": true}}
	report, err := newValidator(api).Run(context.Background(), []string{dir})

	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())
	require.Len(t, report.Results[0].Errors, 1)
	require.Contains(t, report.Results[0].Errors[0], "document 1")
	require.Contains(t, report.Results[0].Errors[0], "svc-missing")
}
