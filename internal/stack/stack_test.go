// Where: internal/stack/stack_test.go
// What: Orchestrator tests over a recording fake cloud.
// Why: Ordering, waits, and the best-effort policy are the contract here.
package stack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/slipway-sh/slipway/internal/config"
	"github.com/slipway-sh/slipway/internal/eventsource"
	"github.com/slipway-sh/slipway/internal/provider"
	"github.com/slipway-sh/slipway/internal/wait"
)

const testStreamARN = "arn:aws:kinesis:us-east-1:123456789012:stream/clicks"

// fakeCloud implements every provider interface the orchestrator
// touches and records mutating calls in order.
type fakeCloud struct {
	calls []string

	function      *provider.FunctionRecord
	createInputs  []provider.FunctionCreateInput
	createFnErr   error
	deleteFnErr   error
	codeUpdates   int
	configUpdates int

	role               *provider.RoleRecord
	attached           map[string]bool
	attachVisibleAfter int
	listAttachedCalls  int

	policies        map[string]*provider.PolicyRecord
	createPolicyErr error

	mappings []provider.MappingRecord
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		attached: map[string]bool{},
		policies: map[string]*provider.PolicyRecord{},
	}
}

func (f *fakeCloud) record(name string) { f.calls = append(f.calls, name) }

func notFoundErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", provider.ErrNotFound, fmt.Sprintf(format, args...))
}

func (f *fakeCloud) CreateFunction(_ context.Context, in provider.FunctionCreateInput) (string, error) {
	f.record("CreateFunction")
	if f.createFnErr != nil {
		return "", f.createFnErr
	}
	f.createInputs = append(f.createInputs, in)
	arn := "arn:aws:lambda:us-east-1:123456789012:function:" + in.Name
	f.function = &provider.FunctionRecord{Name: in.Name, ARN: arn, Runtime: in.Runtime, Role: in.Role, State: "Active"}
	return arn, nil
}

func (f *fakeCloud) GetFunction(_ context.Context, _ string) (*provider.FunctionRecord, error) {
	return f.function, nil
}

func (f *fakeCloud) UpdateFunctionCode(_ context.Context, _ provider.CodeInput) error {
	f.record("UpdateFunctionCode")
	f.codeUpdates++
	return nil
}

func (f *fakeCloud) UpdateFunctionConfiguration(_ context.Context, _ provider.FunctionConfigInput) error {
	f.record("UpdateFunctionConfiguration")
	f.configUpdates++
	return nil
}

func (f *fakeCloud) DeleteFunction(_ context.Context, name string) error {
	f.record("DeleteFunction")
	if f.deleteFnErr != nil {
		return f.deleteFnErr
	}
	if f.function == nil {
		return notFoundErr("function %s", name)
	}
	f.function = nil
	return nil
}

func (f *fakeCloud) Invoke(_ context.Context, _ provider.InvokeInput) (*provider.InvokeResult, error) {
	f.record("Invoke")
	return &provider.InvokeResult{StatusCode: 200}, nil
}

func (f *fakeCloud) AddPermission(_ context.Context, _ provider.PermissionInput) error {
	f.record("AddPermission")
	return nil
}

func (f *fakeCloud) CreateMapping(_ context.Context, in provider.MappingInput) (*provider.MappingRecord, error) {
	f.record("CreateMapping")
	record := provider.MappingRecord{UUID: fmt.Sprintf("uuid-%d", len(f.mappings)+1), SourceARN: in.SourceARN, State: "Creating", BatchSize: in.BatchSize}
	f.mappings = append(f.mappings, record)
	return &record, nil
}

func (f *fakeCloud) ListMappings(_ context.Context, sourceARN, _ string) ([]provider.MappingRecord, error) {
	var matched []provider.MappingRecord
	for _, record := range f.mappings {
		if record.SourceARN == sourceARN {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (f *fakeCloud) UpdateMapping(_ context.Context, _ string, _ int32, _ *bool) error {
	f.record("UpdateMapping")
	return nil
}

func (f *fakeCloud) DeleteMapping(_ context.Context, uuid string) error {
	f.record("DeleteMapping")
	for i, record := range f.mappings {
		if record.UUID == uuid {
			f.mappings = append(f.mappings[:i], f.mappings[i+1:]...)
			return nil
		}
	}
	return notFoundErr("event source mapping %s", uuid)
}

func (f *fakeCloud) CreateRole(_ context.Context, in provider.RoleCreateInput) (string, error) {
	f.record("CreateRole")
	arn := "arn:aws:iam::123456789012:role" + in.Path + in.Name
	f.role = &provider.RoleRecord{Name: in.Name, ARN: arn, Path: in.Path}
	return arn, nil
}

func (f *fakeCloud) DeleteRole(_ context.Context, name string) error {
	f.record("DeleteRole")
	if f.role == nil {
		return notFoundErr("role %s", name)
	}
	f.role = nil
	return nil
}

func (f *fakeCloud) GetRole(_ context.Context, _ string) (*provider.RoleRecord, error) {
	return f.role, nil
}

func (f *fakeCloud) ListRoles(_ context.Context, _ string) ([]provider.RoleRecord, error) {
	if f.role == nil {
		return nil, nil
	}
	return []provider.RoleRecord{*f.role}, nil
}

func (f *fakeCloud) PutRolePolicy(_ context.Context, _, _, _ string) error {
	f.record("PutRolePolicy")
	return nil
}

func (f *fakeCloud) DeleteRolePolicy(_ context.Context, _, _ string) error {
	f.record("DeleteRolePolicy")
	return nil
}

func (f *fakeCloud) AttachRolePolicy(_ context.Context, _, policyARN string) error {
	f.record("AttachRolePolicy")
	f.attached[policyARN] = true
	return nil
}

func (f *fakeCloud) DetachRolePolicy(_ context.Context, _, policyARN string) error {
	f.record("DetachRolePolicy")
	if !f.attached[policyARN] {
		return notFoundErr("attachment %s", policyARN)
	}
	delete(f.attached, policyARN)
	return nil
}

func (f *fakeCloud) ListAttachedRolePolicies(_ context.Context, _ string) ([]provider.AttachedPolicy, error) {
	f.listAttachedCalls++
	if f.listAttachedCalls <= f.attachVisibleAfter {
		return nil, nil
	}
	var attached []provider.AttachedPolicy
	for arn := range f.attached {
		attached = append(attached, provider.AttachedPolicy{ARN: arn})
	}
	return attached, nil
}

func (f *fakeCloud) CreatePolicy(_ context.Context, in provider.PolicyCreateInput) (string, error) {
	f.record("CreatePolicy")
	if f.createPolicyErr != nil {
		return "", f.createPolicyErr
	}
	arn := "arn:aws:iam::123456789012:policy" + in.Path + in.Name
	f.policies[in.Name] = &provider.PolicyRecord{Name: in.Name, ARN: arn, Path: in.Path, DefaultVersionID: "v1"}
	return arn, nil
}

func (f *fakeCloud) DeletePolicy(_ context.Context, arn string) error {
	f.record("DeletePolicy")
	for name, record := range f.policies {
		if record.ARN == arn {
			delete(f.policies, name)
			return nil
		}
	}
	return notFoundErr("policy %s", arn)
}

func (f *fakeCloud) GetPolicy(_ context.Context, arn string) (*provider.PolicyRecord, error) {
	for _, record := range f.policies {
		if record.ARN == arn {
			return record, nil
		}
	}
	return nil, nil
}

func (f *fakeCloud) ListPolicies(_ context.Context, _ string) ([]provider.PolicyRecord, error) {
	var records []provider.PolicyRecord
	for _, record := range f.policies {
		records = append(records, *record)
	}
	return records, nil
}

func (f *fakeCloud) CreatePolicyVersion(_ context.Context, _, _ string) error {
	f.record("CreatePolicyVersion")
	return nil
}

func (f *fakeCloud) ListPolicyVersions(_ context.Context, _ string) ([]provider.PolicyVersion, error) {
	return nil, nil
}

func (f *fakeCloud) DeletePolicyVersion(_ context.Context, _, _ string) error {
	f.record("DeletePolicyVersion")
	return nil
}

func (f *fakeCloud) FilterEvents(_ context.Context, _ string, _ time.Time, _ string) ([]provider.LogEvent, string, error) {
	return nil, "", nil
}

func (f *fakeCloud) DeleteGroup(_ context.Context, _ string) error {
	f.record("DeleteGroup")
	return nil
}

func (f *fakeCloud) AccountID(_ context.Context) (string, error) {
	return "123456789012", nil
}

func (f *fakeCloud) clients() provider.Clients {
	return provider.Clients{
		Functions: f,
		Mappings:  f,
		IAM:       f,
		Logs:      f,
		Identity:  f,
		Region:    "us-east-1",
	}
}

func writeSourceTree(t *testing.T, dir string) {
	t.Helper()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}
	payload := []byte("def handler(event, context):\n    return event\n")
	if err := os.WriteFile(filepath.Join(src, "app.py"), payload, 0o644); err != nil {
		t.Fatalf("write handler: %v", err)
	}
}

func writePolicyDocument(t *testing.T, dir string) {
	t.Helper()
	payload := []byte(`{"Version": "2012-10-17", "Statement": []}`)
	if err := os.WriteFile(filepath.Join(dir, "policy.json"), payload, 0o644); err != nil {
		t.Fatalf("write policy document: %v", err)
	}
}

func functionSpec(dir string, sources ...config.EventSourceSpec) *config.FunctionSpec {
	return &config.FunctionSpec{
		Name:         "hello",
		Runtime:      "python3.12",
		Handler:      "app.handler",
		Path:         "src/",
		ZipfileName:  filepath.Join(dir, "hello.zip"),
		Timeout:      4,
		MemorySize:   128,
		EventSources: sources,
	}
}

func managedSpec(t *testing.T, dir string, sources ...config.EventSourceSpec) *config.DeploymentSpec {
	t.Helper()
	writeSourceTree(t, dir)
	writePolicyDocument(t, dir)
	return &config.DeploymentSpec{
		Name: "hello",
		IAM: &config.IAMSpec{
			Policies: config.PolicyList{{Name: "custom", Document: "policy.json"}},
			Role:     &config.RoleSpec{Managed: true, Name: "hello"},
		},
		Lambda: functionSpec(dir, sources...),
	}
}

func bareSpec(t *testing.T, dir string, sources ...config.EventSourceSpec) *config.DeploymentSpec {
	t.Helper()
	writeSourceTree(t, dir)
	return &config.DeploymentSpec{Name: "hello", Lambda: functionSpec(dir, sources...)}
}

func callIndex(t *testing.T, calls []string, name string) int {
	t.Helper()
	for i, call := range calls {
		if call == name {
			return i
		}
	}
	t.Fatalf("call %s not recorded in %v", name, calls)
	return -1
}

func TestCreateProvisionsInDependencyOrder(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	cloud.attachVisibleAfter = 2
	spec := managedSpec(t, dir)
	s := newStackInDir(t, spec, dir, cloud, Options{})

	report := s.Create(context.Background())
	if err := report.Err(); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	policyAt := callIndex(t, cloud.calls, "CreatePolicy")
	roleAt := callIndex(t, cloud.calls, "CreateRole")
	attachAt := callIndex(t, cloud.calls, "AttachRolePolicy")
	functionAt := callIndex(t, cloud.calls, "CreateFunction")
	if !(policyAt < roleAt && roleAt < attachAt && attachAt < functionAt) {
		t.Fatalf("unexpected order: %v", cloud.calls)
	}

	if cloud.listAttachedCalls < 3 {
		t.Fatalf("readiness wait should poll attachments, got %d listings", cloud.listAttachedCalls)
	}
	if len(cloud.createInputs) != 1 {
		t.Fatalf("expected one function creation, got %d", len(cloud.createInputs))
	}
	if cloud.createInputs[0].Role != cloud.role.ARN {
		t.Fatalf("function should reference the role: %s", cloud.createInputs[0].Role)
	}
}

func TestCreateWithoutIAMManagesOnlyFunction(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	s := newStackInDir(t, bareSpec(t, dir), dir, cloud, Options{})

	report := s.Create(context.Background())
	if err := report.Err(); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(report.Steps) != 1 || report.Steps[0].Name != "function hello" {
		t.Fatalf("unexpected steps: %+v", report.Steps)
	}
	for _, call := range cloud.calls {
		if call == "CreateRole" || call == "CreatePolicy" {
			t.Fatalf("unmanaged resources must not be touched: %v", cloud.calls)
		}
	}
}

func TestDeployCreatesThenUpdates(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	s := newStackInDir(t, bareSpec(t, dir), dir, cloud, Options{})

	if err := s.Deploy(context.Background()).Err(); err != nil {
		t.Fatalf("first deploy failed: %v", err)
	}
	if err := s.Deploy(context.Background()).Err(); err != nil {
		t.Fatalf("second deploy failed: %v", err)
	}

	if len(cloud.createInputs) != 1 {
		t.Fatalf("deploy must never create twice: %d", len(cloud.createInputs))
	}
	if cloud.codeUpdates != 1 || cloud.configUpdates != 1 {
		t.Fatalf("second deploy should update in place: code=%d config=%d", cloud.codeUpdates, cloud.configUpdates)
	}
}

func TestDeleteRemovesInReverseOrder(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	spec := managedSpec(t, dir, config.EventSourceSpec{ARN: testStreamARN})
	s := newStackInDir(t, spec, dir, cloud, Options{})

	if err := s.Create(context.Background()).Err(); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.AddEventSources(context.Background()).Err(); err != nil {
		t.Fatalf("add event sources failed: %v", err)
	}
	cloud.calls = nil

	if err := s.Delete(context.Background()).Err(); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	mappingAt := callIndex(t, cloud.calls, "DeleteMapping")
	groupAt := callIndex(t, cloud.calls, "DeleteGroup")
	functionAt := callIndex(t, cloud.calls, "DeleteFunction")
	detachAt := callIndex(t, cloud.calls, "DetachRolePolicy")
	roleAt := callIndex(t, cloud.calls, "DeleteRole")
	policyAt := callIndex(t, cloud.calls, "DeletePolicy")
	if !(mappingAt < groupAt && groupAt < functionAt && functionAt < detachAt && detachAt < roleAt && roleAt < policyAt) {
		t.Fatalf("unexpected order: %v", cloud.calls)
	}
}

func TestDeleteContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	spec := managedSpec(t, dir)
	s := newStackInDir(t, spec, dir, cloud, Options{})

	if err := s.Create(context.Background()).Err(); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	cloud.calls = nil
	cloud.deleteFnErr = errors.New("function busy")

	report := s.Delete(context.Background())
	if report.Err() == nil {
		t.Fatalf("expected delete report to carry the failure")
	}

	callIndex(t, cloud.calls, "DeleteRole")
	callIndex(t, cloud.calls, "DeletePolicy")
	for _, step := range report.Steps {
		if step.Name == "function settle" {
			t.Fatalf("settle must be skipped when deletion failed")
		}
	}

	failed := report.Failed()
	if len(failed) != 1 || failed[0].Name != "function hello" {
		t.Fatalf("unexpected failed steps: %+v", failed)
	}
}

func TestFailFastAbortsRemainingSteps(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	cloud.createPolicyErr = errors.New("denied")
	spec := managedSpec(t, dir)
	s := newStackInDir(t, spec, dir, cloud, Options{FailFast: true})

	report := s.Create(context.Background())
	if report.Err() == nil {
		t.Fatalf("expected failure")
	}
	if len(report.Steps) != 1 {
		t.Fatalf("fail-fast must stop after the first failure: %+v", report.Steps)
	}
	for _, call := range cloud.calls {
		if call == "CreateRole" || call == "CreateFunction" {
			t.Fatalf("later resources must not be touched: %v", cloud.calls)
		}
	}
}

func TestAddEventSourcesRequiresDeployedFunction(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	spec := bareSpec(t, dir, config.EventSourceSpec{ARN: testStreamARN})
	s := newStackInDir(t, spec, dir, cloud, Options{})

	report := s.AddEventSources(context.Background())
	if report.Err() == nil {
		t.Fatalf("expected failure without a deployed function")
	}
	if len(report.Steps) != 1 || report.Steps[0].Name != "resolve function" {
		t.Fatalf("unexpected steps: %+v", report.Steps)
	}

	if err := s.Create(context.Background()).Err(); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.AddEventSources(context.Background()).Err(); err != nil {
		t.Fatalf("add event sources failed: %v", err)
	}
	callIndex(t, cloud.calls, "CreateMapping")
}

func TestStatusDistinguishesUnmanagedFromMissing(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	s := newStackInDir(t, bareSpec(t, dir), dir, cloud, Options{})

	if err := s.Create(context.Background()).Err(); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	status, err := s.Status(context.Background())
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Policies != nil || status.Role != nil {
		t.Fatalf("unmanaged slots must stay nil: %+v", status)
	}
	if status.Function == nil || status.Function.Name != "hello" {
		t.Fatalf("function should be reported: %+v", status.Function)
	}
	if status.EventSources == nil || len(status.EventSources) != 0 {
		t.Fatalf("event sources must be an empty list: %+v", status.EventSources)
	}
	if status.State != StateDeployed {
		t.Fatalf("unexpected state: %s", status.State)
	}

	payload, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("marshal status: %v", err)
	}
	if !strings.Contains(string(payload), `"policies":null`) {
		t.Fatalf("unmanaged policies should serialize as null: %s", payload)
	}
	if !strings.Contains(string(payload), `"event_sources":[]`) {
		t.Fatalf("event sources should serialize as []: %s", payload)
	}
}

func TestStatusReportsManagedButMissing(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	spec := managedSpec(t, dir)
	s := newStackInDir(t, spec, dir, cloud, Options{})

	status, err := s.Status(context.Background())
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Role == nil || status.Role.Found {
		t.Fatalf("managed missing role should be present with Found=false: %+v", status.Role)
	}
	if status.Policies == nil || len(*status.Policies) != 1 || (*status.Policies)[0].Found {
		t.Fatalf("managed missing policy should be present with Found=false: %+v", status.Policies)
	}
	if status.State != StateAbsent {
		t.Fatalf("unexpected state: %s", status.State)
	}
}

func TestStatusMarksAbsentBindings(t *testing.T) {
	dir := t.TempDir()
	cloud := newFakeCloud()
	spec := bareSpec(t, dir, config.EventSourceSpec{ARN: testStreamARN})
	s := newStackInDir(t, spec, dir, cloud, Options{})

	if err := s.Create(context.Background()).Err(); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	status, err := s.Status(context.Background())
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if len(status.EventSources) != 1 {
		t.Fatalf("expected one binding slot: %+v", status.EventSources)
	}
	source := status.EventSources[0]
	if source.Kind != eventsource.KindKinesis || source.State != "Absent" {
		t.Fatalf("unexpected binding status: %+v", source)
	}
}

func TestNewRejectsUnknownEventSource(t *testing.T) {
	dir := t.TempDir()
	spec := bareSpec(t, dir, config.EventSourceSpec{ARN: "arn:aws:sqs:us-east-1:123456789012:queue"})

	_, err := New(spec, Deps{Clients: newFakeCloud().clients(), BaseDir: dir}, Options{})
	var unknown *eventsource.UnknownSourceError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownSourceError, got %v", err)
	}
}

func newStackInDir(t *testing.T, spec *config.DeploymentSpec, dir string, cloud *fakeCloud, opts Options) *Stack {
	t.Helper()
	if opts.Wait == (wait.Config{}) {
		opts.Wait = wait.Config{Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Timeout: 250 * time.Millisecond}
	}
	s, err := New(spec, Deps{Clients: cloud.clients(), BaseDir: dir}, opts)
	if err != nil {
		t.Fatalf("new stack: %v", err)
	}
	return s
}
