package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"dbd/internal/providers"
	"dbd/internal/structures"
)

type resolverTestLogger struct{}

func (m *resolverTestLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *resolverTestLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *resolverTestLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *resolverTestLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *resolverTestLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *resolverTestLogger) Close()                                                  {}

type stubOracle struct {
	acl   *TenantACL
	err   error
	calls int
}

func (s *stubOracle) TenantACL(_ context.Context, _ string) (*TenantACL, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.acl == nil {
		return &TenantACL{}, nil
	}
	return s.acl, nil
}

func newTestResolver(oracle Oracle, superAdmins ...string) ResolverInterface {
	conf := &structures.Config{
		Board: structures.BoardConfig{SuperAdmins: superAdmins},
	}
	return NewResolver(conf, oracle, &resolverTestLogger{})
}

func TestResolver_SuperAdminWinsWithoutOracle(t *testing.T) {
	oracle := &stubOracle{err: errors.New("should not be called")}
	r := newTestResolver(oracle, "0xROOT")

	level, reason := r.Resolve(context.Background(), "board.example", "0xroot", true)
	assert.Equal(t, Admin, level)
	assert.Empty(t, reason)
	assert.Zero(t, oracle.calls)
}

func TestResolver_TenantAdmin(t *testing.T) {
	oracle := &stubOracle{acl: &TenantACL{Admins: []string{"0xAdmin"}}}
	r := newTestResolver(oracle)

	level, _ := r.Resolve(context.Background(), "board.example", "0xADMIN", true)
	assert.Equal(t, Admin, level)
}

func TestResolver_EditorIsPoster(t *testing.T) {
	oracle := &stubOracle{acl: &TenantACL{Editors: []string{"0xeditor"}}}
	r := newTestResolver(oracle)

	level, _ := r.Resolve(context.Background(), "board.example", "0xEditor", true)
	assert.Equal(t, Poster, level)
}

func TestResolver_EntryAtPosterThreshold(t *testing.T) {
	oracle := &stubOracle{acl: &TenantACL{Entries: []*Entry{
		{Address: "0xhigh", Level: 2},
		{Address: "0xlow", Level: 1},
	}}}
	r := newTestResolver(oracle)

	level, _ := r.Resolve(context.Background(), "board.example", "0xhigh", true)
	assert.Equal(t, Poster, level)

	level, reason := r.Resolve(context.Background(), "board.example", "0xlow", true)
	assert.Equal(t, None, level)
	assert.NotEmpty(t, reason)
}

func TestResolver_UnknownAddressReadsButCannotWrite(t *testing.T) {
	r := newTestResolver(&stubOracle{})

	level, reason := r.Resolve(context.Background(), "board.example", "0xnobody", false)
	assert.Equal(t, Reader, level)
	assert.Empty(t, reason)

	level, reason = r.Resolve(context.Background(), "board.example", "0xnobody", true)
	assert.Equal(t, None, level)
	assert.NotEmpty(t, reason)
}

func TestResolver_OracleFailureFailsClosedForWrites(t *testing.T) {
	oracle := &stubOracle{err: errors.New("connection refused")}
	r := newTestResolver(oracle)

	// Reads keep working.
	level, reason := r.Resolve(context.Background(), "board.example", "0xany", false)
	assert.Equal(t, Reader, level)
	assert.Empty(t, reason)

	// Writes are denied with an explanation.
	level, reason = r.Resolve(context.Background(), "board.example", "0xany", true)
	assert.Less(t, level, Poster)
	assert.NotEmpty(t, reason)
}

func TestResolver_AddressComparisonIsCaseInsensitive(t *testing.T) {
	oracle := &stubOracle{acl: &TenantACL{Admins: []string{"0xAbCdEf"}}}
	r := newTestResolver(oracle)

	level, _ := r.Resolve(context.Background(), "board.example", "0XABCDEF", true)
	assert.Equal(t, Admin, level)
}

func TestResolver_CachesOracleAnswer(t *testing.T) {
	oracle := &stubOracle{acl: &TenantACL{Editors: []string{"0xeditor"}}}
	r := newTestResolver(oracle)

	for i := 0; i < 5; i++ {
		r.Resolve(context.Background(), "board.example", "0xeditor", true)
	}
	assert.Equal(t, 1, oracle.calls)
}

func TestResolver_DisplayName(t *testing.T) {
	oracle := &stubOracle{acl: &TenantACL{Entries: []*Entry{
		{Address: "0xaaa", Name: ""},
		{Address: "0xbbb", Name: "alice"},
	}}}
	r := newTestResolver(oracle)

	assert.Equal(t, "alice", r.DisplayName(context.Background(), "board.example", "0xBBB"))
	assert.Empty(t, r.DisplayName(context.Background(), "board.example", "0xaaa"))
	assert.Empty(t, r.DisplayName(context.Background(), "board.example", "0xmissing"))
}

func TestResolver_DisplayNameEmptyOnOracleFailure(t *testing.T) {
	r := newTestResolver(&stubOracle{err: errors.New("down")})
	assert.Empty(t, r.DisplayName(context.Background(), "board.example", "0xbbb"))
}

func TestLevel_Ordering(t *testing.T) {
	assert.True(t, None < Reader)
	assert.True(t, Reader < Poster)
	assert.True(t, Poster < Admin)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "reader", Reader.String())
	assert.Equal(t, "poster", Poster.String())
	assert.Equal(t, "admin", Admin.String())
}
