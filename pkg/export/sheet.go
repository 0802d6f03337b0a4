package export

// WeekSheet is the print-ready shape of one week. Entries are ordered the
// way they should appear, earliest first.
type WeekSheet struct {
	Title string
	Days  []DaySheet
}

// DaySheet holds one weekday column.
type DaySheet struct {
	Name    string
	Entries []Entry
}

// Entry is a single printed lesson.
type Entry struct {
	Time    string
	Title   string
	Class   string
	Teacher string
	Room    string
}

var weekHeaders = []string{"Day", "Time", "Lesson", "Class", "Teacher", "Room"}

// Dataset flattens the sheet into the tabular export shape.
func (s WeekSheet) Dataset() Dataset {
	data := Dataset{Headers: weekHeaders}
	for _, day := range s.Days {
		for _, entry := range day.Entries {
			data.Rows = append(data.Rows, map[string]string{
				"Day":     day.Name,
				"Time":    entry.Time,
				"Lesson":  entry.Title,
				"Class":   entry.Class,
				"Teacher": entry.Teacher,
				"Room":    entry.Room,
			})
		}
	}
	return data
}
