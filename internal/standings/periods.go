// Package standings holds the period mapping and aggregation logic behind the
// two-month league tables.
package standings

import (
	"time"

	"github.com/omarshaarawi/fplstandings/internal/models"
)

// DefaultPeriods are the five two-month scoring windows of a season.
var DefaultPeriods = []models.Period{
	{ID: "aug-sep", Name: "August + September", Months: []int{8, 9}},
	{ID: "oct-nov", Name: "October + November", Months: []int{10, 11}},
	{ID: "dec-jan", Name: "December + January", Months: []int{12, 1}},
	{ID: "feb-mar", Name: "February + March", Months: []int{2, 3}},
	{ID: "apr-may", Name: "April + May", Months: []int{4, 5}},
}

// MapGameweeks groups gameweek ids by the period containing the month of their
// deadline in loc. Every period is present in the result, empty or not. Month
// sets are not checked for overlap: a gameweek lands in every period whose
// month set contains its deadline month.
func MapGameweeks(periods []models.Period, gameweeks []models.Gameweek, loc *time.Location) models.PeriodMapping {
	if loc == nil {
		loc = time.Local
	}

	mapping := make(models.PeriodMapping, len(periods))
	for _, p := range periods {
		mapping[p.ID] = []int{}
	}

	for _, gw := range gameweeks {
		month := int(gw.DeadlineTime.In(loc).Month())
		for _, p := range periods {
			if p.HasMonth(month) {
				mapping[p.ID] = append(mapping[p.ID], gw.ID)
			}
		}
	}
	return mapping
}

// FindPeriod looks a period up by id.
func FindPeriod(periods []models.Period, id string) (models.Period, bool) {
	for _, p := range periods {
		if p.ID == id {
			return p, true
		}
	}
	return models.Period{}, false
}

// PeriodOf returns the id of the first period whose bucket holds gameweekID.
func PeriodOf(periods []models.Period, mapping models.PeriodMapping, gameweekID int) (string, bool) {
	for _, p := range periods {
		if containsInt(mapping[p.ID], gameweekID) {
			return p.ID, true
		}
	}
	return "", false
}

// LiveGameweek returns the id of the gameweek that is current and unfinished, if any.
func LiveGameweek(gameweeks []models.Gameweek) *int {
	for _, gw := range gameweeks {
		if gw.Live() {
			id := gw.ID
			return &id
		}
	}
	return nil
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
