package partnership

import (
	"context"
	"errors"
	"fmt"

	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// GormStore implements Store on top of GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	db := s.db.WithContext(ctx)

	fresh := models.Profile{UserID: userID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}

func (s *GormStore) InviteCandidates(ctx context.Context, exclude uuid.UUID, code string) ([]models.Profile, error) {
	var profiles []models.Profile
	err := s.db.WithContext(ctx).
		Where("invite_code = ? AND user_id <> ?", code, exclude).
		Find(&profiles).Error
	return profiles, err
}

func (s *GormStore) ProfilesByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return []models.Profile{}, nil
	}
	var profiles []models.Profile
	err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error
	return profiles, err
}

func (s *GormStore) LinkedProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := s.db.WithContext(ctx).Where("partner_id IS NOT NULL").Find(&profiles).Error
	return profiles, err
}

func (s *GormStore) SetPartner(ctx context.Context, userID, partnerID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("partner_id", partnerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (s *GormStore) ClearPartner(ctx context.Context, userID, partnerID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ? AND partner_id = ?", userID, partnerID).
		Update("partner_id", nil).Error
}

func (s *GormStore) FindPartnership(ctx context.Context, id uuid.UUID) (*models.Partnership, error) {
	var p models.Partnership
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) FindPartnershipBetween(ctx context.Context, a, b uuid.UUID) (*models.Partnership, error) {
	var p models.Partnership
	err := s.db.WithContext(ctx).Where(
		"(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)",
		a, b, b, a,
	).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) ListPartnerships(ctx context.Context, userID uuid.UUID) ([]models.Partnership, error) {
	var ps []models.Partnership
	err := s.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&ps).Error
	return ps, err
}

func (s *GormStore) AcceptedPartnerships(ctx context.Context) ([]models.Partnership, error) {
	var ps []models.Partnership
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PartnershipAccepted).
		Order("created_at, id").
		Find(&ps).Error
	return ps, err
}

func (s *GormStore) CreatePartnership(ctx context.Context, p *models.Partnership) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.Status == models.PartnershipAccepted {
			if err := claimPair(tx, p.User1ID, p.User2ID, uuid.Nil); err != nil {
				return err
			}
		}
		return tx.Create(p).Error
	})
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyPartnered
	}
	return err
}

func (s *GormStore) AcceptPartnership(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Partnership
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotPending
		}
		if err != nil {
			return err
		}
		if p.Status != models.PartnershipPending {
			return ErrNotPending
		}
		if err := claimPair(tx, p.User1ID, p.User2ID, p.ID); err != nil {
			return err
		}

		result := tx.Model(&models.Partnership{}).
			Where("id = ? AND status = ?", id, models.PartnershipPending).
			Update("status", models.PartnershipAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotPending
		}
		return nil
	})
}

// claimPair locks both profile rows in user_id order and fails with
// ErrAlreadyPartnered when either user holds an accepted partnership other
// than except. Concurrent claims on a shared user serialize on its row.
func claimPair(tx *gorm.DB, a, b, except uuid.UUID) error {
	var locked []models.Profile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id IN ?", []uuid.UUID{a, b}).
		Order("user_id").
		Find(&locked).Error; err != nil {
		return fmt.Errorf("lock profiles: %w", err)
	}

	var taken int64
	if err := tx.Model(&models.Partnership{}).
		Where("status = ? AND id <> ?", models.PartnershipAccepted, except).
		Where("(user1_id IN ? OR user2_id IN ?)", []uuid.UUID{a, b}, []uuid.UUID{a, b}).
		Count(&taken).Error; err != nil {
		return fmt.Errorf("check accepted partnerships: %w", err)
	}
	if taken > 0 {
		return ErrAlreadyPartnered
	}
	return nil
}

func (s *GormStore) DeletePartnership(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Partnership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
