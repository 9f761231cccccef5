// Package seed loads and removes development data.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"natours/db"
	"natours/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// User carries the plain password of a seeded account
type User struct {
	models.User
	Password string `json:"password"`
	Active   *bool  `json:"active,omitempty"`
}

// Review names its author by id
type Review struct {
	models.Review
	UserID uint64 `json:"user"`
}

// Tour names its guides by id
type Tour struct {
	models.Tour
	Guides []uint64 `json:"guides"`
}

// Dataset is the content of a seed file. A file holding a plain list is read
// as a list of tours.
type Dataset struct {
	Users   []User   `json:"users"`
	Tours   []Tour   `json:"tours"`
	Reviews []Review `json:"reviews"`
}

type Counts struct {
	Users   int64
	Tours   int64
	Reviews int64
}

// ReadFile reads a .json, .yaml or .yml dataset
func ReadFile(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc interface{}
		if err = yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		// the models only know their JSON names
		if raw, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("converting %s: %w", path, err)
		}
	case ".json":
	default:
		return nil, fmt.Errorf("unsupported seed file %s", path)
	}
	return parse(raw)
}

func parse(raw []byte) (*Dataset, error) {
	ds := &Dataset{}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &ds.Tours); err != nil {
			return nil, err
		}
		return ds, nil
	}
	if err := json.Unmarshal(raw, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// Import stores the dataset in one transaction: users, then tours with their
// guides, then reviews, which recompute the tour ratings.
func Import(ds *Dataset) (*Counts, error) {
	counts := &Counts{}
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		for i := range ds.Users {
			u := &ds.Users[i]
			user := u.User
			user.Active = u.Active == nil || *u.Active
			if user.Role == "" {
				user.Role = models.RoleUser
			}
			if err := user.Validate(); err != nil {
				return fmt.Errorf("user %s: %w", user.Email, err)
			}
			if err := user.SetPassword(u.Password); err != nil {
				return err
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("user %s: %w", user.Email, err)
			}
			counts.Users++
		}
		for i := range ds.Tours {
			tour := &ds.Tours[i].Tour
			if len(ds.Tours[i].Guides) > 0 {
				tour.GuideIDs = ds.Tours[i].Guides
			}
			if tour.RatingsAverage == 0 {
				tour.RatingsAverage = models.DefaultRatingsAverage
			}
			if err := tour.Validate(); err != nil {
				return fmt.Errorf("tour %s: %w", tour.Name, err)
			}
			if err := tx.Create(tour).Error; err != nil {
				return fmt.Errorf("tour %s: %w", tour.Name, err)
			}
			counts.Tours++
		}
		for i := range ds.Reviews {
			review := ds.Reviews[i].Review
			review.UserID = ds.Reviews[i].UserID
			if err := review.Validate(); err != nil {
				return fmt.Errorf("review %d: %w", i, err)
			}
			if err := tx.Create(&review).Error; err != nil {
				return fmt.Errorf("review %d: %w", i, err)
			}
			counts.Reviews++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Data successfully imported!",
		zap.Int64("users", counts.Users),
		zap.Int64("tours", counts.Tours),
		zap.Int64("reviews", counts.Reviews),
	)
	return counts, nil
}

// Delete removes tours, users, reviews and bookings
func Delete() (*Counts, error) {
	counts := &Counts{}
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true, SkipHooks: true})
		if err := all.Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		res := all.Delete(&models.Review{})
		if res.Error != nil {
			return res.Error
		}
		counts.Reviews = res.RowsAffected
		if err := tx.Exec("DELETE FROM tour_guides").Error; err != nil {
			return err
		}
		if res = all.Delete(&models.Tour{}); res.Error != nil {
			return res.Error
		}
		counts.Tours = res.RowsAffected
		if res = all.Delete(&models.User{}); res.Error != nil {
			return res.Error
		}
		counts.Users = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Data successfully deleted!",
		zap.Int64("users", counts.Users),
		zap.Int64("tours", counts.Tours),
		zap.Int64("reviews", counts.Reviews),
	)
	return counts, nil
}
