package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/config"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/models"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
)

type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

type recordingFiles struct {
	files []*models.StoredFile
}

func (r *recordingFiles) SaveFile(_ context.Context, f *models.StoredFile) error {
	r.files = append(r.files, f)
	return nil
}

func upload(name, contentType string, data []byte) (multipart.File, *multipart.FileHeader) {
	header := &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(data)),
		Header:   textproto.MIMEHeader{"Content-Type": {contentType}},
	}
	return memoryFile{bytes.NewReader(data)}, header
}

func newLocalStorage(t *testing.T, recorder FileRecorder) *StorageService {
	cfg := &config.Config{Upload: config.UploadConfig{
		LocalDir:         t.TempDir(),
		LocalBaseURL:     "/uploads/",
		LogoMaxBytes:     2 << 20,
		DocumentMaxBytes: 5 << 20,
	}}
	svc, err := NewStorageService(cfg, recorder)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestUploadFileStoresLocally(t *testing.T) {
	recorder := &recordingFiles{}
	svc := newLocalStorage(t, recorder)
	sessionID := uuid.New()
	data := []byte("%PDF-1.4 identity document")

	file, header := upload("RG Maria.PDF", "application/pdf", data)
	res, err := svc.UploadFile(context.Background(), sessionID, models.FileCategoryApplicantIdentity, file, header)
	require.NoError(t, err)

	assert.Regexp(t, `^applicant_identity/20260203_[0-9a-f]{8}\.pdf$`, res.Key)
	assert.Equal(t, "/uploads/"+res.Key, res.URL)
	assert.Equal(t, int64(len(data)), res.Size)
	assert.Equal(t, utils.FileChecksum(data), res.Checksum)

	onDisk, err := os.ReadFile(filepath.Join(svc.config.Upload.LocalDir, filepath.FromSlash(res.Key)))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	require.Len(t, recorder.files, 1)
	stored := recorder.files[0]
	assert.Equal(t, sessionID, stored.SessionID)
	assert.Equal(t, "RG Maria.PDF", stored.OriginalName)
	assert.Equal(t, "application/pdf", stored.MimeType)
	assert.Equal(t, res.Key, stored.StorageKey)

	require.NoError(t, svc.DeleteFile(context.Background(), res.Key))
	_, err = os.Stat(filepath.Join(svc.config.Upload.LocalDir, filepath.FromSlash(res.Key)))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadFileEnforcesCategoryRules(t *testing.T) {
	svc := newLocalStorage(t, nil)
	big := bytes.Repeat([]byte{0xff}, 2<<20+1)

	tests := []struct {
		name     string
		category models.FileCategory
		filename string
		data     []byte
		wantErr  error
	}{
		{"logo over 2MB", models.FileCategoryLogo, "logo.jpg", big, ErrFileTooLarge},
		{"document under 5MB", models.FileCategoryPowerOfAttorney, "proc.jpg", big, nil},
		{"logo must be jpg", models.FileCategoryLogo, "logo.png", []byte("png"), ErrFileTypeNotAllowed},
		{"documents accept png", models.FileCategoryHolderIdentity, "rg.png", []byte("png"), nil},
		{"documents reject docx", models.FileCategoryQualificationProof, "prova.docx", []byte("doc"), ErrFileTypeNotAllowed},
		{"unknown category", models.FileCategory("selfie"), "a.jpg", []byte("x"), ErrUnknownCategory},
		{"empty file", models.FileCategoryLogo, "logo.jpeg", nil, ErrEmptyFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, header := upload(tt.filename, "", tt.data)
			_, err := svc.UploadFile(context.Background(), uuid.New(), tt.category, file, header)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUploadFileDoesNotTrustDeclaredSize(t *testing.T) {
	svc := newLocalStorage(t, nil)
	file, header := upload("logo.jpg", "image/jpeg", bytes.Repeat([]byte{1}, 2<<20+10))
	header.Size = 10

	_, err := svc.UploadFile(context.Background(), uuid.New(), models.FileCategoryLogo, file, header)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestS3URL(t *testing.T) {
	svc := &StorageService{config: &config.Config{AWS: config.AWSConfig{S3Bucket: "formulario-arquivos", Region: "sa-east-1"}}}
	assert.Equal(t, "https://formulario-arquivos.s3.sa-east-1.amazonaws.com/logo/a.jpg", svc.getS3URL("logo/a.jpg"))

	svc.config.AWS.CloudFrontURL = "https://cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/logo/a.jpg", svc.getS3URL("logo/a.jpg"))
}
