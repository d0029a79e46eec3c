package models

import "math"

// AttendanceStatus marks one tracked lecture occurrence.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "P"
	AttendanceStatusAbsent  AttendanceStatus = "A"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// OccurrenceKey identifies one attendance-markable event on a date: a
// subject plus, when known, the positional slot index that disambiguates
// repeated occurrences of the same subject. It is an explicit composite
// value with structural equality, so subject ids containing arbitrary
// characters can never collide the way concatenated string keys can.
type OccurrenceKey struct {
	SubjectID string
	SlotIndex int
	Indexed   bool
}

// NewOccurrenceKey builds the key from a subject id and optional index.
func NewOccurrenceKey(subjectID string, slotIndex *int) OccurrenceKey {
	if slotIndex == nil {
		return OccurrenceKey{SubjectID: subjectID}
	}
	return OccurrenceKey{SubjectID: subjectID, SlotIndex: *slotIndex, Indexed: true}
}

// AttendanceEntry is one subject/slot mark inside a date's record.
type AttendanceEntry struct {
	SubjectID string           `db:"subject_id" json:"subject_id"`
	Status    AttendanceStatus `db:"status" json:"status"`
	SlotIndex *int             `db:"slot_index" json:"slot_index,omitempty"`
}

// Occurrence returns the entry's occurrence identity.
func (e AttendanceEntry) Occurrence() OccurrenceKey {
	return NewOccurrenceKey(e.SubjectID, e.SlotIndex)
}

// AttendanceRecord holds every entry for one calendar date. Entries are
// unique by occurrence identity; Put maintains that by construction.
type AttendanceRecord struct {
	Date    string            `json:"date"`
	Entries []AttendanceEntry `json:"entries"`
}

// Put replaces any entry sharing the new entry's occurrence identity and
// appends the new entry. This filter-then-append is the only way entries
// enter a record, which is what keeps occurrence identities unique
// without any post-hoc validation.
func (r *AttendanceRecord) Put(entry AttendanceEntry) {
	key := entry.Occurrence()
	kept := r.Entries[:0]
	for _, e := range r.Entries {
		if e.Occurrence() != key {
			kept = append(kept, e)
		}
	}
	r.Entries = append(kept, entry)
}

// Clone returns a deep copy, used to snapshot state before an
// optimistic mutation so a failed persistence call can restore it
// exactly.
func (r AttendanceRecord) Clone() AttendanceRecord {
	entries := make([]AttendanceEntry, len(r.Entries))
	copy(entries, r.Entries)
	for i, e := range r.Entries {
		if e.SlotIndex != nil {
			idx := *e.SlotIndex
			entries[i].SlotIndex = &idx
		}
	}
	return AttendanceRecord{Date: r.Date, Entries: entries}
}

// AttendanceStats summarises every tracked lecture across all records.
type AttendanceStats struct {
	TotalLectures     int     `json:"total_lectures"`
	LecturesAttended  int     `json:"lectures_attended"`
	LecturesMissed    int     `json:"lectures_missed"`
	OverallPercentage float64 `json:"overall_percentage"`
}

// ComputeOverallStats folds over every entry of every record. It is a
// pure function recomputed on demand; nothing caches its result, so the
// totals can never drift from the records.
func ComputeOverallStats(records []AttendanceRecord) AttendanceStats {
	stats := AttendanceStats{}
	for _, record := range records {
		for _, entry := range record.Entries {
			switch entry.Status {
			case AttendanceStatusPresent:
				stats.LecturesAttended++
			case AttendanceStatusAbsent:
				stats.LecturesMissed++
			}
		}
	}
	stats.TotalLectures = stats.LecturesAttended + stats.LecturesMissed
	if stats.TotalLectures > 0 {
		stats.OverallPercentage = roundPercent(float64(stats.LecturesAttended) / float64(stats.TotalLectures) * 100)
	}
	return stats
}

// SubjectStats summarises tracked lectures for one subject.
type SubjectStats struct {
	SubjectID         string  `json:"subject_id"`
	SubjectName       string  `json:"subject_name"`
	SubjectCode       string  `json:"subject_code"`
	TotalClasses      int     `json:"total_classes"`
	AttendedClasses   int     `json:"attended_classes"`
	CurrentPercentage float64 `json:"current_percentage"`
	BunkRate          float64 `json:"bunk_rate"`
}

// ComputeSubjectStats folds records per subject. Every subject in the
// catalog gets a row, including subjects with no tracked lectures yet;
// entries referencing deleted subjects are counted nowhere.
func ComputeSubjectStats(records []AttendanceRecord, subjects []Subject) []SubjectStats {
	type tally struct{ total, attended int }
	tallies := make(map[string]*tally, len(subjects))
	for _, s := range subjects {
		tallies[s.ID] = &tally{}
	}
	for _, record := range records {
		for _, entry := range record.Entries {
			t, ok := tallies[entry.SubjectID]
			if !ok {
				continue
			}
			t.total++
			if entry.Status == AttendanceStatusPresent {
				t.attended++
			}
		}
	}

	result := make([]SubjectStats, 0, len(subjects))
	for _, s := range subjects {
		t := tallies[s.ID]
		stat := SubjectStats{
			SubjectID:       s.ID,
			SubjectName:     s.Name,
			SubjectCode:     s.Code,
			TotalClasses:    t.total,
			AttendedClasses: t.attended,
		}
		if t.total > 0 {
			stat.CurrentPercentage = roundPercent(float64(t.attended) / float64(t.total) * 100)
			stat.BunkRate = roundPercent(100 - float64(t.attended)/float64(t.total)*100)
		}
		result = append(result, stat)
	}
	return result
}

// DueOccurrence is one lecture a student should be marked for on some
// date: the subject joined with its time slot and positional index.
type DueOccurrence struct {
	Subject   Subject   `json:"subject"`
	TimeSlot  TimeRange `json:"time_slot"`
	SlotIndex int       `json:"slot_index"`
}

// ResolveDueOccurrences joins a weekday's stored slot list against the
// subject catalog. Slots referencing subjects that no longer exist are
// dropped rather than failing the whole read; their positional indices
// are still consumed, so the surviving occurrences keep the indices they
// had when the schedule was stored.
func ResolveDueOccurrences(weekday int, schedules []WeekdaySchedule, catalog SubjectCatalog) []DueOccurrence {
	var daySchedule *WeekdaySchedule
	for i := range schedules {
		if schedules[i].Weekday == weekday {
			daySchedule = &schedules[i]
			break
		}
	}
	if daySchedule == nil || len(daySchedule.Slots) == 0 {
		return nil
	}

	var due []DueOccurrence
	for idx, slot := range daySchedule.Slots {
		subject, ok := catalog[slot.SubjectID]
		if !ok {
			continue
		}
		due = append(due, DueOccurrence{
			Subject:   subject,
			TimeSlot:  slot.Range(),
			SlotIndex: idx,
		})
	}
	return due
}

func roundPercent(pct float64) float64 {
	return math.Round(pct*100) / 100
}
