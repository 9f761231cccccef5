package processing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"natours/config"
	"natours/db"
	"natours/db/dbtest"
	"natours/errs"
	"natours/locations"
	"natours/models"
	"natours/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	buf := bytes.Buffer{}
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fileHeaders builds multipart file headers the way gin receives them
func fileHeaders(t *testing.T, field string, files ...[]byte) []*multipart.FileHeader {
	t.Helper()
	body := bytes.Buffer{}
	mw := multipart.NewWriter(&body)
	for i, content := range files {
		part, err := mw.CreateFormFile(field, "file"+string(rune('a'+i)))
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field]
}

func TestResizeCover(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"landscape source", 300, 100},
		{"portrait source", 100, 300},
		{"smaller than target", 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ResizeCover(bytes.NewReader(pngBytes(t, tt.width, tt.height)), 200, 133)
			require.NoError(t, err)
			img, err := jpeg.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 200, img.Bounds().Dx())
			assert.Equal(t, 133, img.Bounds().Dy())
		})
	}
}

func TestResizeCoverRejectsGarbage(t *testing.T) {
	_, err := ResizeCover(bytes.NewReader([]byte("not an image")), 10, 10)
	var appErr *errs.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Equal(t, "Not an image! Please upload only images.", appErr.Message)
}

func TestDetectImage(t *testing.T) {
	headers := fileHeaders(t, "photo", pngBytes(t, 4, 4), []byte("%PDF-1.4 definitely a document"))
	require.Len(t, headers, 2)
	assert.NoError(t, DetectImage(headers[0]))
	err := DetectImage(headers[1])
	require.Error(t, err)
	assert.Equal(t, "Not an image! Please upload only images.", err.Error())
}

func newDiskStore(t *testing.T) (storage.StorageAPI, string) {
	dir := t.TempDir()
	return storage.NewDiskStorage(&storage.Bucket{Path: dir}), dir
}

func TestSaveTourImages(t *testing.T) {
	store, dir := newDiskStore(t)
	cover := fileHeaders(t, "imageCover", pngBytes(t, 60, 40))[0]
	images := fileHeaders(t, "images", pngBytes(t, 30, 30), pngBytes(t, 50, 20), pngBytes(t, 20, 50), pngBytes(t, 10, 10))

	result, err := SaveTourImages(context.Background(), store, 7, cover, images)
	require.NoError(t, err)
	assert.Regexp(t, `^tour-7-\d+-cover\.jpeg$`, result.Cover)
	require.Len(t, result.Images, MaxTourImages)
	for i, name := range result.Images {
		assert.Regexp(t, `^tour-7-\d+-`+string(rune('1'+i))+`\.jpeg$`, name)
		_, err = os.Stat(filepath.Join(dir, "tours", name))
		assert.NoError(t, err)
	}
	_, err = os.Stat(filepath.Join(dir, "tours", result.Cover))
	assert.NoError(t, err)
}

func TestSaveTourImagesFailsOnNonImage(t *testing.T) {
	store, _ := newDiskStore(t)
	images := fileHeaders(t, "images", pngBytes(t, 30, 30), []byte("plain text"))
	_, err := SaveTourImages(context.Background(), store, 1, nil, images)
	assert.Error(t, err)
}

func TestSaveUserPhoto(t *testing.T) {
	store, dir := newDiskStore(t)
	name, err := SaveUserPhoto(store, 3, fileHeaders(t, "photo", pngBytes(t, 80, 60))[0])
	require.NoError(t, err)
	assert.Regexp(t, `^user-3-\d+\.jpeg$`, name)

	f, err := os.Open(filepath.Join(dir, "users", name))
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, UserPhotoSize, UserPhotoSize), img.Bounds())
}

func TestStatusMap(t *testing.T) {
	task := EnrichmentTask{TourID: 1, Status: "timezone:2,broken,address:3"}
	statusMap := task.statusToMap()
	assert.Equal(t, map[string]int{"timezone": Done, "address": Failed}, statusMap)

	statusMap["extra"] = Skipped
	task.updateWith(statusMap)
	assert.Equal(t, "address:3,extra:0,timezone:2", task.Status)
}

type fakeGeocoder struct {
	calls int
	err   error
}

func (f *fakeGeocoder) Reverse(_ context.Context, _, _ float64) (*locations.NominatimLocation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &locations.NominatimLocation{
		DisplayName: "Banff, Alberta, Canada",
		Address:     locations.NominatimAddress{Place: "Cave and Basin", Town: "Banff", Country: "Canada", CountryCode: "ca"},
	}, nil
}

func createTour(t *testing.T, name string, secret bool, start models.Location) *models.Tour {
	t.Helper()
	tour := &models.Tour{
		Name:          name,
		Duration:      5,
		MaxGroupSize:  10,
		Difficulty:    models.DifficultyEasy,
		Price:         decimal.NewFromInt(397),
		Summary:       "Exploring the mountains",
		ImageCover:    "cover.jpg",
		SecretTour:    secret,
		StartLocation: start,
	}
	tour.SetDefaults()
	require.NoError(t, db.Instance.Create(tour).Error)
	return tour
}

func reload(t *testing.T, id uint64) models.Tour {
	t.Helper()
	var tour models.Tour
	require.NoError(t, models.IncludeHidden(db.Instance).First(&tour, id).Error)
	return tour
}

func TestProcessPending(t *testing.T) {
	dbtest.Setup(t)
	require.NoError(t, models.Init())
	cfg := config.Default()
	cfg.GeocodeEnabled = true
	geocoder := &fakeGeocoder{}
	require.NoError(t, Init(cfg, geocoder))

	banff := models.Location{Type: models.PointType, Coordinates: []float64{-115.570154, 51.178456}}
	public := createTour(t, "The Forest Hiker", false, banff)
	secret := createTour(t, "The Secret Banff Tour", true, banff)
	noStart := createTour(t, "The Sea Explorer", false, models.Location{})

	processed, err := ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, processed)
	// the second tour at the same place is served from the cache
	assert.Equal(t, 1, geocoder.calls)

	for _, id := range []uint64{public.ID, secret.ID} {
		tour := reload(t, id)
		assert.Equal(t, "America/Edmonton", tour.StartLocation.Timezone)
		assert.Equal(t, "Cave and Basin, Banff, Canada", tour.StartLocation.Address)
	}
	var status EnrichmentTask
	require.NoError(t, db.Instance.First(&status, noStart.ID).Error)
	assert.Equal(t, "address:0,timezone:0", status.Status)

	processed, err = ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)

	require.NoError(t, Reset(public.ID))
	processed, err = ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed, "an enriched tour has nothing left to fill in")
}

func TestProcessPendingGeocoderFailure(t *testing.T) {
	dbtest.Setup(t)
	require.NoError(t, models.Init())
	cfg := config.Default()
	cfg.GeocodeEnabled = true
	require.NoError(t, Init(cfg, &fakeGeocoder{err: errors.New("offline")}))

	tour := createTour(t, "The Park Camper Tour", false, models.Location{Coordinates: []float64{-118.076152, 36.58025}})
	_, err := ProcessPending(context.Background())
	require.NoError(t, err)

	var status EnrichmentTask
	require.NoError(t, db.Instance.First(&status, tour.ID).Error)
	assert.Equal(t, "address:3,timezone:2", status.Status)
	assert.Equal(t, "America/Los_Angeles", reload(t, tour.ID).StartLocation.Timezone)
}

func TestInitWithoutGeocoding(t *testing.T) {
	dbtest.Setup(t)
	require.NoError(t, models.Init())
	require.NoError(t, Init(config.Default(), &fakeGeocoder{}))
	assert.Len(t, tasks, 1)
	assert.Contains(t, tasks, "timezone")
}
