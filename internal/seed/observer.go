package seed

// Observer receives seeding progress. With concurrency above one the item
// callbacks arrive from several goroutines.
type Observer interface {
	SeedStarted(total int)
	FetchStarted(index int, url string)
	FetchFinished(r Result)
	SeedFinished(s Summary)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) SeedStarted(int)          {}
func (NopObserver) FetchStarted(int, string) {}
func (NopObserver) FetchFinished(Result)     {}
func (NopObserver) SeedFinished(Summary)     {}
