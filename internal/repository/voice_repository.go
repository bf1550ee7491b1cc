// internal/repository/voice_repository.go
package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/dineshachuthan/storyteller-backend/internal/errors"
	"github.com/dineshachuthan/storyteller-backend/internal/model"
)

type VoiceRepositoryInterface interface {
	// Profiles
	CreateProfile(p *model.VoiceProfile) error
	GetProfile(id int) (*model.VoiceProfile, error)
	ListProfilesByUser(userID int) ([]model.VoiceProfile, error)
	UpdateProfileStatus(id int, status, providerVoiceID, lastError string) error
	ListTrainingProfiles() ([]model.VoiceProfile, error)

	// Samples
	CreateSample(s *model.VoiceSample) error
	ListSamples(profileID int) ([]model.VoiceSample, error)

	// ESM reference data
	ListESMItems() ([]model.ESMItem, error)
	GetESMItem(id int) (*model.ESMItem, error)
}

type VoiceRepository struct {
	DB *sql.DB
}

// ====================== Profiles ======================

func (r *VoiceRepository) CreateProfile(p *model.VoiceProfile) error {
	p.CreatedAt = time.Now()
	if p.Status == "" {
		p.Status = "pending"
	}
	query := `
        INSERT INTO voice_profiles (user_id, name, status, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	return r.DB.QueryRow(query, p.UserID, p.Name, p.Status, p.CreatedAt).Scan(&p.ID)
}

func (r *VoiceRepository) GetProfile(id int) (*model.VoiceProfile, error) {
	query := `
        SELECT id, user_id, name, COALESCE(provider_voice_id,''), status, COALESCE(last_error,''), sample_count, created_at, updated_at
        FROM voice_profiles WHERE id=$1
    `
	var p model.VoiceProfile
	err := r.DB.QueryRow(query, id).Scan(&p.ID, &p.UserID, &p.Name, &p.ProviderVoiceID, &p.Status, &p.LastError, &p.SampleCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewVoiceProfileNotFound(id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *VoiceRepository) ListProfilesByUser(userID int) ([]model.VoiceProfile, error) {
	query := `
        SELECT id, user_id, name, COALESCE(provider_voice_id,''), status, COALESCE(last_error,''), sample_count, created_at, updated_at
        FROM voice_profiles WHERE user_id=$1 ORDER BY id DESC
    `
	return r.scanProfiles(query, userID)
}

// ListTrainingProfiles returns profiles the worker's cron loop should poll.
func (r *VoiceRepository) ListTrainingProfiles() ([]model.VoiceProfile, error) {
	query := `
        SELECT id, user_id, name, COALESCE(provider_voice_id,''), status, COALESCE(last_error,''), sample_count, created_at, updated_at
        FROM voice_profiles WHERE status='training'
    `
	return r.scanProfiles(query)
}

func (r *VoiceRepository) scanProfiles(query string, args ...interface{}) ([]model.VoiceProfile, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []model.VoiceProfile{}
	for rows.Next() {
		var p model.VoiceProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.ProviderVoiceID, &p.Status, &p.LastError, &p.SampleCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (r *VoiceRepository) UpdateProfileStatus(id int, status, providerVoiceID, lastError string) error {
	query := `
        UPDATE voice_profiles
        SET status=$1,
            provider_voice_id=COALESCE(NULLIF($2,''), provider_voice_id),
            last_error=$3,
            updated_at=NOW()
        WHERE id=$4
    `
	_, err := r.DB.Exec(query, status, providerVoiceID, lastError, id)
	return err
}

// ====================== Samples ======================

func (r *VoiceRepository) CreateSample(s *model.VoiceSample) error {
	s.CreatedAt = time.Now()
	query := `
        INSERT INTO voice_samples (voice_profile_id, esm_item_id, object_key, duration_secs, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	if err := r.DB.QueryRow(query, s.VoiceProfileID, s.ESMItemID, s.ObjectKey, s.DurationSecs, s.CreatedAt).Scan(&s.ID); err != nil {
		return err
	}

	// keep the denormalized counter in step
	_, err := r.DB.Exec(`UPDATE voice_profiles SET sample_count=sample_count+1, updated_at=NOW() WHERE id=$1`, s.VoiceProfileID)
	return err
}

func (r *VoiceRepository) ListSamples(profileID int) ([]model.VoiceSample, error) {
	query := `
        SELECT id, voice_profile_id, esm_item_id, object_key, duration_secs, created_at
        FROM voice_samples WHERE voice_profile_id=$1 ORDER BY id
    `
	rows, err := r.DB.Query(query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []model.VoiceSample{}
	for rows.Next() {
		var s model.VoiceSample
		if err := rows.Scan(&s.ID, &s.VoiceProfileID, &s.ESMItemID, &s.ObjectKey, &s.DurationSecs, &s.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// ====================== ESM reference data ======================

func (r *VoiceRepository) ListESMItems() ([]model.ESMItem, error) {
	query := `SELECT id, category, name, prompt_text, sample_seconds FROM esm_items ORDER BY category, id`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.ESMItem{}
	for rows.Next() {
		var it model.ESMItem
		if err := rows.Scan(&it.ID, &it.Category, &it.Name, &it.PromptText, &it.SampleSeconds); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (r *VoiceRepository) GetESMItem(id int) (*model.ESMItem, error) {
	query := `SELECT id, category, name, prompt_text, sample_seconds FROM esm_items WHERE id=$1`
	var it model.ESMItem
	err := r.DB.QueryRow(query, id).Scan(&it.ID, &it.Category, &it.Name, &it.PromptText, &it.SampleSeconds)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

var _ VoiceRepositoryInterface = (*VoiceRepository)(nil)
