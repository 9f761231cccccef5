package seed

import (
	"os"
	"path/filepath"
	"testing"

	"natours/db"
	"natours/db/dbtest"
	"natours/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const jsonData = `{
  "users": [
    {"id": 1, "name": "Leo Gillespie", "email": "leo@example.com", "role": "lead-guide", "password": "test1234"},
    {"id": 2, "name": "Sophie Louise Hart", "email": "sophie@example.com", "password": "test1234"},
    {"id": 3, "name": "Gone User", "email": "gone@example.com", "password": "test1234", "active": false}
  ],
  "tours": [
    {
      "id": 1,
      "name": "The Forest Hiker",
      "duration": 5,
      "maxGroupSize": 25,
      "difficulty": "easy",
      "price": 397,
      "summary": "Breathtaking hike through the Canadian Banff National Park",
      "imageCover": "tour-1-cover.jpg",
      "startLocation": {"coordinates": [-115.570154, 51.178456], "description": "Banff, CAN"},
      "guides": [1]
    }
  ],
  "reviews": [
    {"review": "Amazing", "rating": 5, "tour": 1, "user": 2},
    {"review": "Good", "rating": 4, "tour": 1, "user": 3}
  ]
}`

const yamlData = `
tours:
  - name: The Sea Explorer
    duration: 7
    maxGroupSize: 15
    difficulty: medium
    price: 497
    summary: Exploring the jaw-dropping US east coast
    imageCover: tour-2-cover.jpg
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func setup(t *testing.T) {
	t.Helper()
	models.PasswordCost = bcrypt.MinCost
	dbtest.Setup(t)
	require.NoError(t, models.Init())
}

func TestReadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		tours   int
		users   int
		wantErr bool
	}{
		{"json dataset", "data.json", jsonData, 1, 3, false},
		{"yaml dataset", "data.yaml", yamlData, 1, 0, false},
		{"json tour list", "tours.json", `[{"name": "The Snow Adventurer"}]`, 1, 0, false},
		{"unknown extension", "data.csv", "name", 0, 0, true},
		{"broken json", "data.json", "{", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadFile(writeFile(t, tt.file, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, ds.Tours, tt.tours)
			assert.Len(t, ds.Users, tt.users)
		})
	}
}

func TestImportAndDelete(t *testing.T) {
	setup(t)
	ds, err := ReadFile(writeFile(t, "data.json", jsonData))
	require.NoError(t, err)

	counts, err := Import(ds)
	require.NoError(t, err)
	assert.Equal(t, &Counts{Users: 3, Tours: 1, Reviews: 2}, counts)

	var tour models.Tour
	require.NoError(t, db.Instance.Preload("Guides").First(&tour, 1).Error)
	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, 4.5, tour.RatingsAverage)
	assert.Equal(t, 2, tour.RatingsQuantity)
	require.Len(t, tour.Guides, 1)
	assert.Equal(t, "Leo Gillespie", tour.Guides[0].Name)

	var sophie models.User
	require.NoError(t, db.Instance.First(&sophie, 2).Error)
	assert.Equal(t, models.RoleUser, sophie.Role)
	assert.True(t, sophie.CorrectPassword("test1234"))

	// inactive accounts are stored but hidden
	var visible int64
	require.NoError(t, db.Instance.Model(&models.User{}).Count(&visible).Error)
	assert.Equal(t, int64(2), visible)

	counts, err = Delete()
	require.NoError(t, err)
	assert.Equal(t, &Counts{Users: 3, Tours: 1, Reviews: 2}, counts)
	var left int64
	require.NoError(t, db.Instance.Scopes(models.IncludeHidden).Model(&models.User{}).Count(&left).Error)
	assert.Zero(t, left)
}

func TestImportIsAtomic(t *testing.T) {
	setup(t)
	ds := &Dataset{
		Users: []User{
			{User: models.User{Name: "Valid User", Email: "valid@example.com"}, Password: "test1234"},
			{User: models.User{Name: "Broken", Email: "not-an-email"}, Password: "test1234"},
		},
	}
	_, err := Import(ds)
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Instance.Scopes(models.IncludeHidden).Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}
