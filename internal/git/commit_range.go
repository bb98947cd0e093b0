package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitsReachable returns the commits reachable from since but not from until
// (git's until..since). A zero until yields the whole history of since.
//
// The returned iterator is lazy and single use: every call walks the graph again.
func (r *Repository) CommitsReachable(since, until plumbing.Hash) (object.CommitIter, error) {
	start, err := r.CommitObject(since)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", since, err)
	}

	hidden, err := r.ancestors(until)
	if err != nil {
		return nil, err
	}

	isValid := object.CommitFilter(func(c *object.Commit) bool {
		return !hidden[c.Hash]
	})
	// Parents of a hidden commit are hidden too; stop walking there.
	isLimit := object.CommitFilter(func(c *object.Commit) bool {
		return hidden[c.Hash]
	})

	return object.NewFilterCommitIter(start, &isValid, &isLimit), nil
}

// CountCommits drains iter and returns how many commits it produced
func CountCommits(iter object.CommitIter) (int, error) {
	defer iter.Close()

	count := 0
	err := iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk commits: %w", err)
	}
	return count, nil
}

// ancestors returns the set of commits reachable from hash, hash included
func (r *Repository) ancestors(hash plumbing.Hash) (map[plumbing.Hash]bool, error) {
	visited := make(map[plumbing.Hash]bool)
	if hash.IsZero() {
		return visited, nil
	}

	// Use BFS to collect all commits
	queue := []plumbing.Hash{hash}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		commit, err := r.CommitObject(current)
		if err != nil {
			return nil, fmt.Errorf("failed to get commit %s: %w", current, err)
		}

		for _, parentHash := range commit.ParentHashes {
			if !visited[parentHash] {
				queue = append(queue, parentHash)
			}
		}
	}

	return visited, nil
}
