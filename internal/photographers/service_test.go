package photographers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/pagination"
)

func TestCreateDefaultsCommission(t *testing.T) {
	repo := &stubPhotographerRepo{}
	svc := buildTestService(t, repo)
	admin := permissions.UserIdentity(1, permissions.NewSet(enums.PermissionCreatePhotographer))

	dto, err := svc.Create(context.Background(), admin, UpsertPhotographerInput{DisplayName: "  Studio Norte  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.DisplayName != "Studio Norte" {
		t.Fatalf("expected trimmed display name, got %q", dto.DisplayName)
	}
	if !dto.CommissionPercentage.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected default commission 20, got %s", dto.CommissionPercentage)
	}
}

func TestCreateRejectsOutOfRangeCommission(t *testing.T) {
	svc := buildTestService(t, &stubPhotographerRepo{})
	admin := permissions.UserIdentity(1, permissions.NewSet(enums.PermissionFullAccess))

	pct := decimal.NewFromInt(120)
	_, err := svc.Create(context.Background(), admin, UpsertPhotographerInput{
		DisplayName:          "Over",
		CommissionPercentage: &pct,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRequiresPermission(t *testing.T) {
	svc := buildTestService(t, &stubPhotographerRepo{})

	_, err := svc.Create(context.Background(), permissions.GuestIdentity("tok"), UpsertPhotographerInput{DisplayName: "X"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestResolveOwnMapsUserToProfile(t *testing.T) {
	userID := int64(5)
	repo := &stubPhotographerRepo{
		byUserID: map[int64]*models.Photographer{
			userID: {ID: 9, UserID: &userID, DisplayName: "Own Studio"},
		},
	}
	svc := buildTestService(t, repo)

	dto, err := svc.ResolveOwn(context.Background(), permissions.UserIdentity(userID, permissions.NewSet()))
	if err != nil {
		t.Fatalf("resolve own: %v", err)
	}
	if dto.ID != 9 {
		t.Fatalf("expected photographer 9, got %d", dto.ID)
	}

	_, err = svc.ResolveOwn(context.Background(), permissions.UserIdentity(404, permissions.NewSet()))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func buildTestService(t *testing.T, repo *stubPhotographerRepo) Service {
	t.Helper()
	svc, err := NewService(repo, config.CommissionConfig{DefaultPercentage: 20})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubPhotographerRepo struct {
	byUserID map[int64]*models.Photographer
	created  *models.Photographer
}

func (s *stubPhotographerRepo) Create(ctx context.Context, record *models.Photographer) (*models.Photographer, error) {
	record.ID = 1
	s.created = record
	return record, nil
}

func (s *stubPhotographerRepo) FindByID(ctx context.Context, id int64) (*models.Photographer, error) {
	panic("not implemented")
}

func (s *stubPhotographerRepo) FindByUserID(ctx context.Context, userID int64) (*models.Photographer, error) {
	if record, ok := s.byUserID[userID]; ok {
		return record, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPhotographerRepo) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Photographer, error) {
	panic("not implemented")
}

func (s *stubPhotographerRepo) Update(ctx context.Context, record *models.Photographer) (*models.Photographer, error) {
	panic("not implemented")
}

func (s *stubPhotographerRepo) Delete(ctx context.Context, id int64) error {
	panic("not implemented")
}
