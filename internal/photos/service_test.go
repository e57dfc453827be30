package photos

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/logger"
	"github.com/fotoclick/backend/pkg/pagination"
)

func TestUploadAttributesPhotoToOwnProfile(t *testing.T) {
	userID := int64(3)
	repo := &stubPhotoRepo{}
	svc := buildTestService(t, repo, &stubPhotographerResolver{
		byUserID: map[int64]*models.Photographer{userID: {ID: 11}},
	})

	identity := permissions.UserIdentity(userID, permissions.NewSet(enums.PermissionUploadPhoto))
	result, err := svc.Upload(context.Background(), identity, UploadPhotoInput{
		Filename:    "match.jpg",
		ContentType: "image/jpeg",
		Price:       decimal.NewFromInt(150),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.UploadURL == "" {
		t.Fatal("expected presigned upload url")
	}
	if repo.created == nil || repo.created.PhotographerID != 11 {
		t.Fatalf("expected photo attributed to photographer 11, got %+v", repo.created)
	}
	if repo.created.ObjectKey == "" {
		t.Fatal("expected object key persisted")
	}
}

func TestUploadRejectsNonImageContent(t *testing.T) {
	svc := buildTestService(t, &stubPhotoRepo{}, &stubPhotographerResolver{})

	identity := permissions.UserIdentity(1, permissions.NewSet(enums.PermissionUploadPhoto))
	_, err := svc.Upload(context.Background(), identity, UploadPhotoInput{
		Filename:    "notes.pdf",
		ContentType: "application/pdf",
		Price:       decimal.NewFromInt(10),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEditOwnershipCheck(t *testing.T) {
	ownerUserID := int64(3)
	otherUserID := int64(4)
	repo := &stubPhotoRepo{
		byID: map[int64]*models.Photo{
			7: {ID: 7, PhotographerID: 11, Price: decimal.NewFromInt(100)},
		},
	}
	resolver := &stubPhotographerResolver{
		byUserID: map[int64]*models.Photographer{
			ownerUserID: {ID: 11},
			otherUserID: {ID: 12},
		},
	}
	svc := buildTestService(t, repo, resolver)

	newPrice := decimal.NewFromInt(200)

	// own permission on someone else's photo
	intruder := permissions.UserIdentity(otherUserID, permissions.NewSet(enums.PermissionEditOwnPhoto))
	_, err := svc.Edit(context.Background(), intruder, 7, EditPhotoInput{Price: &newPrice})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// own permission on the owner's photo
	owner := permissions.UserIdentity(ownerUserID, permissions.NewSet(enums.PermissionEditOwnPhoto))
	dto, err := svc.Edit(context.Background(), owner, 7, EditPhotoInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("edit own: %v", err)
	}
	if !dto.Price.Equal(newPrice) {
		t.Fatalf("expected price updated, got %s", dto.Price)
	}

	// any permission works without a profile
	admin := permissions.UserIdentity(99, permissions.NewSet(enums.PermissionEditAnyPhoto))
	if _, err := svc.Edit(context.Background(), admin, 7, EditPhotoInput{Price: &newPrice}); err != nil {
		t.Fatalf("edit any: %v", err)
	}
}

func TestDeleteSurvivesSignerFailure(t *testing.T) {
	repo := &stubPhotoRepo{
		byID: map[int64]*models.Photo{
			7: {ID: 7, PhotographerID: 11, ObjectKey: "photos/x/y.jpg"},
		},
	}
	svc := buildTestServiceWithSigner(t, repo, &stubPhotographerResolver{}, &stubSigner{deleteErr: io.ErrUnexpectedEOF})

	admin := permissions.UserIdentity(1, permissions.NewSet(enums.PermissionDeleteAnyPhoto))
	if err := svc.Delete(context.Background(), admin, 7); err != nil {
		t.Fatalf("delete must tolerate signer failure, got %v", err)
	}
	if _, ok := repo.byID[7]; ok {
		t.Fatal("expected row deleted")
	}
}

func buildTestService(t *testing.T, repo *stubPhotoRepo, resolver *stubPhotographerResolver) Service {
	t.Helper()
	return buildTestServiceWithSigner(t, repo, resolver, &stubSigner{})
}

func buildTestServiceWithSigner(t *testing.T, repo *stubPhotoRepo, resolver *stubPhotographerResolver, signer *stubSigner) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "photos-test", Output: io.Discard})
	svc, err := NewService(repo, resolver, signer, logg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubPhotoRepo struct {
	byID    map[int64]*models.Photo
	created *models.Photo
}

func (s *stubPhotoRepo) Create(ctx context.Context, record *models.Photo) (*models.Photo, error) {
	record.ID = 1
	s.created = record
	return record, nil
}

func (s *stubPhotoRepo) FindByID(ctx context.Context, id int64) (*models.Photo, error) {
	if record, ok := s.byID[id]; ok {
		return record, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPhotoRepo) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Photo, error) {
	panic("not implemented")
}

func (s *stubPhotoRepo) Update(ctx context.Context, record *models.Photo) (*models.Photo, error) {
	s.byID[record.ID] = record
	return record, nil
}

func (s *stubPhotoRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.byID, id)
	return nil
}

type stubPhotographerResolver struct {
	byUserID map[int64]*models.Photographer
}

func (s *stubPhotographerResolver) FindByUserID(ctx context.Context, userID int64) (*models.Photographer, error) {
	if record, ok := s.byUserID[userID]; ok {
		return record, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSigner struct {
	deleteErr error
}

func (s *stubSigner) GenerateUploadURL(filename, contentType string) (string, string, error) {
	return "https://storage.example.com/put", "photos/test/" + filename, nil
}

func (s *stubSigner) GenerateViewURL(objectKey string) (string, error) {
	return "https://storage.example.com/get/" + objectKey, nil
}

func (s *stubSigner) Delete(ctx context.Context, objectKey string) error {
	return s.deleteErr
}
