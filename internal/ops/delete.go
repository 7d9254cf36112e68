package ops

import "context"

// Delete removes an entry by id.
func Delete(ctx context.Context, store EntryStore, id int64) error {
	return store.DeleteEntry(ctx, id)
}
