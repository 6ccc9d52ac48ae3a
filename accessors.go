package cache

import (
	"github.com/krisalay/faculty-cache/api"
	"github.com/krisalay/faculty-cache/section"
	"github.com/krisalay/faculty-cache/types"
)

var _ api.FacultyData = (*DataContext)(nil)

// State returns a snapshot of the current state.
func (c *DataContext) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity is the identity in scope, or "".
func (c *DataContext) Identity() string { return c.State().Identity }

// Status is the current load status.
func (c *DataContext) Status() Status { return c.State().Status }

// FacultyData is the current document, or nil before the first load.
func (c *DataContext) FacultyData() types.Document { return c.State().Data }

// Loading reports whether a fetch is in flight.
func (c *DataContext) Loading() bool { return c.State().Status == StatusLoading }

// Error is the last fetch error message, or "".
func (c *DataContext) Error() string { return c.State().ErrMessage() }

// Err is the last fetch error.
func (c *DataContext) Err() error { return c.State().Err }

// Section returns the named section's records. Absent sections yield an
// empty, non-nil slice.
func (c *DataContext) Section(name string) []types.Record {
	sec, ok := c.State().Data[name]
	if !ok || sec.Records == nil {
		return []types.Record{}
	}
	return sec.Records
}

// Single returns the record of a singleton section.
func (c *DataContext) Single(name string) (types.Record, bool) {
	return c.State().Data.Section(name).Single()
}

func (c *DataContext) Profile() (types.Record, bool) { return c.Single(section.Profile) }
func (c *DataContext) About() (types.Record, bool)   { return c.Single(section.About) }

func (c *DataContext) Education() []types.Record      { return c.Section(section.Education) }
func (c *DataContext) Experience() []types.Record     { return c.Section(section.Experience) }
func (c *DataContext) Publications() []types.Record   { return c.Section(section.Publications) }
func (c *DataContext) Conferences() []types.Record    { return c.Section(section.Conferences) }
func (c *DataContext) Books() []types.Record          { return c.Section(section.Books) }
func (c *DataContext) Projects() []types.Record       { return c.Section(section.Projects) }
func (c *DataContext) Patents() []types.Record        { return c.Section(section.Patents) }
func (c *DataContext) Awards() []types.Record         { return c.Section(section.Awards) }
func (c *DataContext) Memberships() []types.Record    { return c.Section(section.Memberships) }
func (c *DataContext) Activities() []types.Record     { return c.Section(section.Activities) }
func (c *DataContext) Courses() []types.Record        { return c.Section(section.Courses) }
func (c *DataContext) Students() []types.Record       { return c.Section(section.Students) }
func (c *DataContext) Consultancy() []types.Record    { return c.Section(section.Consultancy) }
func (c *DataContext) Fellowships() []types.Record    { return c.Section(section.Fellowships) }
func (c *DataContext) Talks() []types.Record          { return c.Section(section.Talks) }
func (c *DataContext) Workshops() []types.Record      { return c.Section(section.Workshops) }
func (c *DataContext) Collaborations() []types.Record { return c.Section(section.Collaborations) }
func (c *DataContext) Certifications() []types.Record { return c.Section(section.Certifications) }
