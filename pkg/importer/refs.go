package importer

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/model"
)

type parentKind int

const (
	parentMasters parentKind = iota
	parentSubs
	parentProjects
)

// refs resolves the human-readable parent names found in uploads to ids.
// Names compare case-insensitively.
type refs struct {
	masters  map[string]uuid.UUID
	subs     map[string]uuid.UUID
	projects map[string]uuid.UUID
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// subKey scopes a sub development name to its master development.
func subKey(masterID uuid.UUID, name string) string {
	return masterID.String() + "\x00" + nameKey(name)
}

func (r *refs) master(name string) (uuid.UUID, bool) {
	id, ok := r.masters[nameKey(name)]
	return id, ok
}

func (r *refs) sub(masterID uuid.UUID, name string) (uuid.UUID, bool) {
	id, ok := r.subs[subKey(masterID, name)]
	return id, ok
}

func (r *refs) project(name string) (uuid.UUID, bool) {
	id, ok := r.projects[nameKey(name)]
	return id, ok
}

func loadRefs(ctx context.Context, db *gorm.DB, kinds []parentKind) (*refs, error) {
	r := &refs{}
	for _, kind := range kinds {
		var err error
		switch kind {
		case parentMasters:
			r.masters, err = loadMasters(ctx, db)
		case parentSubs:
			r.subs, err = loadSubs(ctx, db)
		case parentProjects:
			r.projects, err = loadProjects(ctx, db)
		}
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func loadMasters(ctx context.Context, db *gorm.DB) (map[string]uuid.UUID, error) {
	var rows []struct {
		ID              uuid.UUID
		DevelopmentName string
	}
	err := db.WithContext(ctx).Model(&model.MasterDevelopment{}).
		Select("id", "development_name").
		Order("created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		if _, ok := out[nameKey(row.DevelopmentName)]; !ok {
			out[nameKey(row.DevelopmentName)] = row.ID
		}
	}
	return out, nil
}

// loadSubs maps each (master, sub development name) pair to the earliest
// created sub development carrying it.
func loadSubs(ctx context.Context, db *gorm.DB) (map[string]uuid.UUID, error) {
	var rows []struct {
		ID                  uuid.UUID
		MasterDevelopmentID uuid.UUID
		SubDevelopmentName  string
	}
	err := db.WithContext(ctx).Model(&model.SubDevelopment{}).
		Select("id", "master_development_id", "sub_development_name").
		Order("created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		key := subKey(row.MasterDevelopmentID, row.SubDevelopmentName)
		if _, ok := out[key]; !ok {
			out[key] = row.ID
		}
	}
	return out, nil
}

func loadProjects(ctx context.Context, db *gorm.DB) (map[string]uuid.UUID, error) {
	var rows []struct {
		ID          uuid.UUID
		ProjectName string
	}
	err := db.WithContext(ctx).Model(&model.Project{}).
		Select("id", "project_name").
		Order("created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]uuid.UUID, len(rows))
	for _, row := range rows {
		if _, ok := out[nameKey(row.ProjectName)]; !ok {
			out[nameKey(row.ProjectName)] = row.ID
		}
	}
	return out, nil
}
