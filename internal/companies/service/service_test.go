package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"treeleads/internal/adapters/storage"
	"treeleads/internal/companies/repository"
	"treeleads/internal/companies/transport"
	"treeleads/platform/apperr"
	"treeleads/platform/logger"
)

type memRepo struct {
	companies  map[uuid.UUID]repository.Company
	lastCreate repository.CreateParams
	lastUpdate repository.UpdateParams
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return repository.Company{}, apperr.NotFound("company not found")
	}
	return c, nil
}

func (m *memRepo) List(context.Context, repository.ListParams) ([]repository.Company, int, error) {
	return nil, 0, nil
}

func (m *memRepo) ListActiveByArea(context.Context, string, string) ([]repository.Company, error) {
	return nil, nil
}

func (m *memRepo) Create(_ context.Context, p repository.CreateParams) (repository.Company, error) {
	m.lastCreate = p
	c := repository.Company{ID: uuid.New(), Name: p.Name, Email: p.Email, Phone: p.Phone, City: p.City, State: p.State, IsActive: true}
	m.companies[c.ID] = c
	return c, nil
}

func (m *memRepo) Update(_ context.Context, p repository.UpdateParams) (repository.Company, error) {
	m.lastUpdate = p
	c, ok := m.companies[p.ID]
	if !ok {
		return repository.Company{}, apperr.NotFound("company not found")
	}
	if p.LogoKey != nil {
		c.LogoKey = p.LogoKey
	}
	m.companies[p.ID] = c
	return c, nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.companies, id)
	return nil
}

type fakeStorage struct {
	storage.Disabled
	deleted []string
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, bucket, folder, fileName, contentType string, size int64) (*storage.PresignedURL, error) {
	if err := storage.ValidateImage(contentType, size, 1<<20); err != nil {
		return nil, err
	}
	return &storage.PresignedURL{URL: "https://s3.local/" + bucket, FileKey: folder + "/" + fileName, ExpiresAt: time.Now()}, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://s3.local/" + bucket + "/" + key, FileKey: key}, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, _ string, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func newTestService() (*Service, *memRepo, *fakeStorage) {
	repo := &memRepo{companies: map[uuid.UUID]repository.Company{}}
	store := &fakeStorage{}
	return New(repo, store, "company-logos", "US", logger.Discard()), repo, store
}

func TestCreateNormalisesContactFields(t *testing.T) {
	svc, repo, _ := newTestService()
	email := "  Info@OakBros.com "
	phoneNumber := "(650) 253-0000"

	_, err := svc.Create(context.Background(), transport.CreateCompanyRequest{
		Name: "Oak <b>Bros</b>", Email: &email, Phone: &phoneNumber, City: "Austin", State: "tx",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastCreate.Name != "Oak Bros" || *repo.lastCreate.Email != "info@oakbros.com" {
		t.Fatalf("unexpected params %+v", repo.lastCreate)
	}
	if *repo.lastCreate.Phone != "+16502530000" || repo.lastCreate.State != "TX" {
		t.Fatalf("unexpected phone/state %v %s", *repo.lastCreate.Phone, repo.lastCreate.State)
	}
}

func TestLogoKeyMustBelongToCompany(t *testing.T) {
	svc, repo, _ := newTestService()
	c, _ := repo.Create(context.Background(), repository.CreateParams{Name: "Acme", City: "Reno", State: "NV"})

	_, err := svc.SetLogo(context.Background(), c.ID, transport.SetLogoRequest{FileKey: "companies/" + uuid.NewString() + "/logo.png"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	resp, err := svc.SetLogo(context.Background(), c.ID, transport.SetLogoRequest{FileKey: "companies/" + c.ID.String() + "/logo.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.LogoURL == nil {
		t.Fatal("expected presigned logo URL")
	}
}

func TestDeleteRemovesLogo(t *testing.T) {
	svc, repo, store := newTestService()
	c, _ := repo.Create(context.Background(), repository.CreateParams{Name: "Acme", City: "Reno", State: "NV"})
	key := "companies/" + c.ID.String() + "/logo.png"
	_, _ = repo.Update(context.Background(), repository.UpdateParams{ID: c.ID, LogoKey: &key})

	if err := svc.Delete(context.Background(), c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != key {
		t.Fatalf("expected logo deletion, got %v", store.deleted)
	}
}

func TestPresignLogoRejectsNonImages(t *testing.T) {
	svc, repo, _ := newTestService()
	c, _ := repo.Create(context.Background(), repository.CreateParams{Name: "Acme", City: "Reno", State: "NV"})

	_, err := svc.PresignLogoUpload(context.Background(), c.ID, transport.PresignLogoRequest{
		FileName: "logo.pdf", ContentType: "application/pdf", SizeBytes: 100,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
