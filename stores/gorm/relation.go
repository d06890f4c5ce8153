//go:build !wasm
// +build !wasm

package gorm

import (
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// relation is a many-to-many join table between a left and a right entity
type relation struct {
	table    string
	leftCol  string
	rightCol string
	model    func() any
}

type linkPair struct {
	FromID uint
	ToID   uint
}

func (r relation) pairs(tx *gorm.DB, fromCol, toCol string, ids []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []linkPair
	err := tx.Table(r.table).
		Select(fromCol+" AS from_id, "+toCol+" AS to_id").
		Where(fromCol+" IN ?", ids).
		Order(toCol).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FromID] = append(out[row.FromID], row.ToID)
	}
	return out, nil
}

// rights maps each left id to its linked right ids
func (r relation) rights(tx *gorm.DB, leftIDs []uint) (map[uint][]uint, error) {
	return r.pairs(tx, r.leftCol, r.rightCol, leftIDs)
}

// lefts maps each right id to its linked left ids
func (r relation) lefts(tx *gorm.DB, rightIDs []uint) (map[uint][]uint, error) {
	return r.pairs(tx, r.rightCol, r.leftCol, rightIDs)
}

func (r relation) insert(tx *gorm.DB, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Table(r.table).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// link adds one pair; an existing pair is left as is
func (r relation) link(tx *gorm.DB, leftID, rightID uint) error {
	return r.insert(tx, []map[string]any{{r.leftCol: leftID, r.rightCol: rightID}})
}

func (r relation) replace(tx *gorm.DB, ownCol, otherCol string, id uint, others []uint) error {
	del := tx.Table(r.table).Where(ownCol+" = ?", id)
	if len(others) > 0 {
		del = del.Where(otherCol+" NOT IN ?", others)
	}
	if err := del.Delete(r.model()).Error; err != nil {
		return err
	}
	rows := make([]map[string]any, 0, len(others))
	for _, other := range others {
		rows = append(rows, map[string]any{ownCol: id, otherCol: other})
	}
	return r.insert(tx, rows)
}

// replaceRights makes others the exact set of right ids linked to leftID
func (r relation) replaceRights(tx *gorm.DB, leftID uint, others []uint) error {
	return r.replace(tx, r.leftCol, r.rightCol, leftID, others)
}

// replaceLefts makes others the exact set of left ids linked to rightID
func (r relation) replaceLefts(tx *gorm.DB, rightID uint, others []uint) error {
	return r.replace(tx, r.rightCol, r.leftCol, rightID, others)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func findByIDs[M any](tx *gorm.DB, table string, ids []uint) ([]M, error) {
	var out []M
	if len(ids) == 0 {
		return out, nil
	}
	err := tx.Table(table).Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, err
}
