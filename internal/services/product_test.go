package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"dieselhub/pkg/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeS3 struct {
	s3iface.S3API
	puts      []*s3.PutObjectInput
	deletes   []string
	deleteErr error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

type memProducts struct {
	items  map[uint]*models.Product
	nextID uint
	cols   []string
}

func newMemProducts(seed ...models.Product) *memProducts {
	m := &memProducts{items: map[uint]*models.Product{}, nextID: 100}
	for i := range seed {
		p := seed[i]
		m.items[p.ID] = &p
	}
	return m
}

func (m *memProducts) GetByID(_ context.Context, id uint) (*models.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) UpdateColumns(_ context.Context, id uint, p *models.Product, columns []string) error {
	if _, ok := m.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.cols = columns
	cp := *p
	m.items[id] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id uint) error {
	delete(m.items, id)
	return nil
}

func (m *memProducts) Count(context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

func strPtr(s string) *string { return &s }

func formFiles(t *testing.T, files ...[2]string) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f[0])
		require.NoError(t, err)
		_, err = io.WriteString(part, f[1])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["files"]
}

func TestProductService_SaveCreatesAndUpserts(t *testing.T) {
	store := newMemProducts(models.Product{BaseModel: models.BaseModel{ID: 5}, Number: "A", Qty: 1})
	svc := NewProductService(store, nil)
	ctx := context.Background()

	created, err := svc.Save(ctx, &models.ProductInput{Number: strPtr("B-1"), Condition: strPtr(models.ConditionNew)})
	require.NoError(t, err)
	assert.Equal(t, uint(100), created.ID)
	assert.Equal(t, []string{}, created.Cross)

	id := uint(5)
	qty := 9
	updated, err := svc.Save(ctx, &models.ProductInput{ID: &id, Qty: &qty})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Number)
	assert.Equal(t, 9, store.items[5].Qty)
	assert.Equal(t, []string{"qty"}, store.cols)

	missing := uint(77)
	withID, err := svc.Save(ctx, &models.ProductInput{ID: &missing, OEM: strPtr("O")})
	require.NoError(t, err)
	assert.Equal(t, uint(77), withID.ID)
}

func TestProductService_SaveValidates(t *testing.T) {
	svc := NewProductService(newMemProducts(), nil)

	_, err := svc.Save(context.Background(), &models.ProductInput{Type: strPtr("Nozzle")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
}

func TestProductService_Patch(t *testing.T) {
	store := newMemProducts(models.Product{BaseModel: models.BaseModel{ID: 1}, Number: "A", Price: 10})
	svc := NewProductService(store, nil)
	ctx := context.Background()

	p, err := svc.Patch(ctx, 1, &models.ProductInput{})
	require.NoError(t, err)
	assert.Equal(t, "A", p.Number)
	assert.Nil(t, store.cols)

	price := 25.5
	_, err = svc.Patch(ctx, 1, &models.ProductInput{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 25.5, store.items[1].Price)

	negative := -1.0
	_, err = svc.Patch(ctx, 1, &models.ProductInput{Price: &negative})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Patch(ctx, 2, &models.ProductInput{Price: &price})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductService_AddImages(t *testing.T) {
	store := newMemProducts(models.Product{BaseModel: models.BaseModel{ID: 3}, Number: "A", Images: []string{"old"}})
	client := &fakeS3{}
	objects := NewStorageServiceWithClient(client, "product-images", "https://cdn.example.com/product-images/")
	svc := NewProductService(store, objects)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	urls, err := svc.AddImages(context.Background(), 3, formFiles(t,
		[2]string{"front view.png", "\x89PNG\r\n\x1a\n0000"},
		[2]string{"b c.jpg", "plain"},
	))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://cdn.example.com/product-images/3/1700000000000-0-front_view.png",
		"https://cdn.example.com/product-images/3/1700000000000-1-b_c.jpg",
	}, urls)
	require.Len(t, client.puts, 2)
	assert.Equal(t, "image/png", aws.StringValue(client.puts[0].ContentType))
	assert.Equal(t, "image/jpeg", aws.StringValue(client.puts[1].ContentType))
	assert.Equal(t, append([]string{"old"}, urls...), store.items[3].Images)
}

func TestProductService_AddImagesLimits(t *testing.T) {
	svc := NewProductService(newMemProducts(), nil)

	urls, err := svc.AddImages(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, urls)

	_, err = svc.AddImages(context.Background(), 1, make([]*multipart.FileHeader, MaxUploadFiles+1))
	assert.ErrorIs(t, err, ErrTooManyFiles)

	_, err = svc.AddImages(context.Background(), 1, formFiles(t, [2]string{"a.jpg", "x"}))
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestProductService_RemoveImageIsBestEffortOnStorage(t *testing.T) {
	url := "https://proj.supabase.co/storage/v1/object/public/product-images/3/1-0-a.jpg"
	store := newMemProducts(models.Product{BaseModel: models.BaseModel{ID: 3}, Number: "A", Images: []string{url, "keep"}})
	client := &fakeS3{deleteErr: errors.New("gone")}
	svc := NewProductService(store, NewStorageServiceWithClient(client, "product-images", "https://cdn.example.com"))

	require.NoError(t, svc.RemoveImage(context.Background(), 3, url))
	assert.Equal(t, []string{"3/1-0-a.jpg"}, client.deletes)
	assert.Equal(t, []string{"keep"}, store.items[3].Images)
}

func TestImageKey(t *testing.T) {
	at := time.UnixMilli(42)
	assert.Equal(t, "7/42-2-my_big_file.jpg", ImageKey(7, at, 2, "my big \t file.jpg"))
	assert.Equal(t, "7/42-0-img", ImageKey(7, at, 0, ""))
}
