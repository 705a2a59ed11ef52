package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/internal/api/handler"
	"github.com/costwatch/costwatch/internal/resource"
	"github.com/costwatch/costwatch/internal/team"
)

// --- Mock Resource Repository ---

type mockResourceRepo struct {
	createFn     func(ctx context.Context, res *resource.Resource) error
	updateTeamFn func(ctx context.Context, id, teamID uuid.UUID) (*resource.Resource, error)
	listFn       func(ctx context.Context, offset, limit int) ([]resource.Resource, error)
}

func (m *mockResourceRepo) Create(ctx context.Context, res *resource.Resource) error {
	if m.createFn != nil {
		return m.createFn(ctx, res)
	}
	res.ID = uuid.New()
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockResourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	return nil, resource.ErrResourceNotFound
}

func (m *mockResourceRepo) List(ctx context.Context, offset, limit int) ([]resource.Resource, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return []resource.Resource{}, nil
}

func (m *mockResourceRepo) UpdateTeam(ctx context.Context, id, teamID uuid.UUID) (*resource.Resource, error) {
	if m.updateTeamFn != nil {
		return m.updateTeamFn(ctx, id, teamID)
	}
	return nil, resource.ErrResourceNotFound
}

func (m *mockResourceRepo) Count(ctx context.Context) (int, error) { return 0, nil }

const testARN = "arn:aws:ec2:us-west-2:123456789012:instance/i-0abc"

func TestResourceCreate_Success(t *testing.T) {
	t.Parallel()

	h := handler.NewResourceHandler(&mockResourceRepo{}, &mockTeamRepo{})

	body := []byte(`{"name":"api-server","arn":"` + testARN + `","service":"EC2"}`)

	req, w := makeChiRequest(http.MethodPost, "/resources", body, nil)
	h.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "api-server", data["name"])
	assert.Equal(t, testARN, data["arn"])
	assert.NotContains(t, data, "teamId")
}

func TestResourceCreate_WithTeam(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()
	teamRepo := &mockTeamRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*team.Team, error) {
			return &team.Team{ID: id, Name: "Platform"}, nil
		},
	}
	h := handler.NewResourceHandler(&mockResourceRepo{}, teamRepo)

	body := []byte(`{"name":"api-server","arn":"` + testARN + `","service":"EC2","teamId":"` + teamID.String() + `"}`)

	req, w := makeChiRequest(http.MethodPost, "/resources", body, nil)
	h.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	env := parseEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, teamID.String(), data["teamId"])
}

func TestResourceCreate_DuplicateARN(t *testing.T) {
	t.Parallel()

	repo := &mockResourceRepo{
		createFn: func(ctx context.Context, res *resource.Resource) error {
			return resource.ErrDuplicateARN
		},
	}
	h := handler.NewResourceHandler(repo, &mockTeamRepo{})

	body := []byte(`{"name":"api-server","arn":"` + testARN + `","service":"EC2"}`)

	req, w := makeChiRequest(http.MethodPost, "/resources", body, nil)
	h.Create(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := parseEnvelope(t, w)
	errObj := env["error"].(map[string]interface{})
	assert.Equal(t, "DUPLICATE_ARN", errObj["code"])
}

func TestResourceCreate_ValidationError(t *testing.T) {
	t.Parallel()

	h := handler.NewResourceHandler(&mockResourceRepo{}, &mockTeamRepo{})

	body := []byte(`{"name":"","arn":"i-0abc","service":""}`)

	req, w := makeChiRequest(http.MethodPost, "/resources", body, nil)
	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResourceUpdateTeam_ResourceNotFound(t *testing.T) {
	t.Parallel()

	teamRepo := &mockTeamRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*team.Team, error) {
			return &team.Team{ID: id, Name: "Platform"}, nil
		},
	}
	h := handler.NewResourceHandler(&mockResourceRepo{}, teamRepo)

	req, w := makeChiRequest(http.MethodPut, "/resources/x/team/y", nil,
		map[string]string{"id": uuid.NewString(), "teamId": uuid.NewString()})
	h.UpdateTeam(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
