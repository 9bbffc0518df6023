package tasks

import (
	"time"

	"github.com/mzurek/taskpilot/models"
)

// Bucket names, in presentation order.
const (
	BucketOverdue  = "overdue"
	BucketToday    = "today"
	BucketTomorrow = "tomorrow"
	BucketThisWeek = "this_week"
	BucketLater    = "later"
	BucketNoDate   = "no_date"
)

var bucketNames = []string{
	BucketOverdue, BucketToday, BucketTomorrow,
	BucketThisWeek, BucketLater, BucketNoDate,
}

// GroupByDate partitions tasks into buckets relative to now's calendar
// date. Every task lands in exactly one bucket; input order is preserved
// within each bucket. All buckets are present in the result, empty ones
// as empty lists.
func GroupByDate(taskList []*models.Task, now time.Time) map[string][]*models.Task {
	groups := make(map[string][]*models.Task, len(bucketNames))
	for _, name := range bucketNames {
		groups[name] = []*models.Task{}
	}

	today := dateOf(now)
	for _, task := range taskList {
		if task.DueDate == nil {
			groups[BucketNoDate] = append(groups[BucketNoDate], task)
			continue
		}

		days := int(dateOf(*task.DueDate).Sub(today).Hours() / 24)
		switch {
		case days < 0:
			groups[BucketOverdue] = append(groups[BucketOverdue], task)
		case days == 0:
			groups[BucketToday] = append(groups[BucketToday], task)
		case days == 1:
			groups[BucketTomorrow] = append(groups[BucketTomorrow], task)
		case days <= 7:
			groups[BucketThisWeek] = append(groups[BucketThisWeek], task)
		default:
			groups[BucketLater] = append(groups[BucketLater], task)
		}
	}
	return groups
}

// dateOf strips the time of day, rebuilding the date in UTC so bucket
// distances are whole days regardless of the source timezone.
func dateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
