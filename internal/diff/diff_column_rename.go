package diff

import (
	"slices"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/normalize"
)

// detectColumnRenames pairs each dropped column with the best scoring added
// column. A pair needs a score of at least renameDetectionScoreThreshold and
// independent evidence: a shared name token or an identical comment.
func (c *Comparator) detectColumnRenames(current, desired *core.Table, td *TableDiff) {
	if len(td.DroppedColumns) == 0 || len(td.AddedColumns) == 0 {
		return
	}

	added := make([]normalize.Column, len(td.AddedColumns))
	for i, col := range td.AddedColumns {
		added[i] = c.norm.Column(desired, col)
	}

	usedAdded := make(map[int]struct{}, len(td.AddedColumns))
	var renames []*ColumnRename

	for _, oldCol := range td.DroppedColumns {
		oldN := c.norm.Column(current, oldCol)
		bestIdx, bestScore := -1, -1
		for j := range td.AddedColumns {
			if _, ok := usedAdded[j]; ok {
				continue
			}
			if score := similarityScore(oldN, added[j]); score > bestScore {
				bestIdx, bestScore = j, score
			}
		}
		if bestIdx < 0 || bestScore < renameDetectionScoreThreshold {
			continue
		}
		newCol := td.AddedColumns[bestIdx]
		if !renameEvidence(oldCol, newCol) {
			c.log.Debug("rename candidate rejected", "table", td.Name, "old", oldCol.Name, "new", newCol.Name, "score", bestScore)
			continue
		}
		usedAdded[bestIdx] = struct{}{}
		c.log.Debug("column rename detected", "table", td.Name, "old", oldCol.Name, "new", newCol.Name, "score", bestScore)

		renames = append(renames, &ColumnRename{
			Old:     oldCol,
			New:     newCol,
			Score:   bestScore,
			Changes: columnFieldChanges(oldN, added[bestIdx]),
		})
	}

	if len(renames) == 0 {
		return
	}

	td.DroppedColumns = slices.DeleteFunc(td.DroppedColumns, func(col *core.Column) bool {
		return slices.ContainsFunc(renames, func(r *ColumnRename) bool { return r.Old == col })
	})
	td.AddedColumns = slices.DeleteFunc(td.AddedColumns, func(col *core.Column) bool {
		return slices.ContainsFunc(renames, func(r *ColumnRename) bool { return r.New == col })
	})
	td.RenamedColumns = append(td.RenamedColumns, renames...)
}

// similarityScore weighs matching attributes of two canonical columns. The
// storage type counts most; a perfect match scores 14.
func similarityScore(a, b normalize.Column) int {
	if strings.EqualFold(a.Name, b.Name) {
		return 0
	}
	score := 0
	add := func(match bool, weight int) {
		if match {
			score += weight
		}
	}
	add(a.Type.Name == b.Type.Name, 4)
	add(a.Type.Length == b.Type.Length && a.Type.Precision == b.Type.Precision && a.Type.Scale == b.Type.Scale, 2)
	add(a.Type.Unsigned == b.Type.Unsigned, 1)
	add(a.Nullable == b.Nullable, 1)
	add(a.AutoIncrement == b.AutoIncrement, 1)
	add(ptrEq(a.Default, b.Default), 1)
	add(a.Charset == b.Charset, 1)
	add(a.Collation == b.Collation, 1)
	add(a.Comment == b.Comment, 1)
	add(ptrEq(a.OnUpdate, b.OnUpdate), 1)
	return score
}

func renameEvidence(oldC, newC *core.Column) bool {
	if hasSharedNameToken(oldC.Name, newC.Name) {
		return true
	}
	comment := strings.TrimSpace(oldC.Comment)
	return comment != "" && strings.EqualFold(comment, strings.TrimSpace(newC.Comment))
}

func hasSharedNameToken(a, b string) bool {
	ta := nameTokens(a)
	tb := nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	for _, t := range tb {
		if slices.Contains(ta, t) {
			return true
		}
	}
	return false
}

func nameTokens(s string) []string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return slices.DeleteFunc(parts, func(p string) bool { return len(p) < renameSharedTokenMinLen })
}
