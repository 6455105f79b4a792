// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Command hugevcs is a minimal entrypoint wiring the on-disk stores
// (backend.Database, opstore.FileStore/FileOpHeadsStore,
// transaction.FileViewStore) through a transaction into the abandon/
// restore/split command drivers. CLI parsing and formatting are an
// out-of-scope external collaborator; this exists to exercise the core in
// an executable shape, not to be a full-featured porcelain.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/antgroup/hugevcs/modules/ids"
	"github.com/antgroup/hugevcs/modules/zeta/backend"
	"github.com/antgroup/hugevcs/modules/zeta/command"
	"github.com/antgroup/hugevcs/modules/zeta/config"
	"github.com/antgroup/hugevcs/modules/zeta/index"
	"github.com/antgroup/hugevcs/modules/zeta/mutablerepo"
	"github.com/antgroup/hugevcs/modules/zeta/object"
	"github.com/antgroup/hugevcs/modules/zeta/opstore"
	"github.com/antgroup/hugevcs/modules/zeta/progress"
	"github.com/antgroup/hugevcs/modules/zeta/transaction"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "abandon":
		err = runAbandon(os.Args[2:])
	case "restore":
		err = runRestore(os.Args[2:])
	case "split":
		err = runSplit(os.Args[2:])
	case "log":
		err = runLog(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "hugevcs: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: hugevcs <abandon|restore|split|log> [flags]")
}

// repoEnv bundles the stores every subcommand opens at its repository
// root, the way command.go's drivers expect a ready *mutablerepo.MutableRepo.
type repoEnv struct {
	db     *backend.Database
	stores transaction.Stores
}

func openRepo(root string) (*repoEnv, error) {
	db, err := backend.NewDatabase(root)
	if err != nil {
		return nil, fmt.Errorf("open commit store: %w", err)
	}
	ops, err := opstore.NewFileStore(root + "/operations")
	if err != nil {
		return nil, fmt.Errorf("open operation store: %w", err)
	}
	views, err := transaction.NewFileViewStore(root + "/views")
	if err != nil {
		return nil, fmt.Errorf("open view store: %w", err)
	}
	return &repoEnv{
		db: db,
		stores: transaction.Stores{
			Operations: ops,
			OpHeads:    opstore.NewFileOpHeadsStore(root),
			Views:      views,
		},
	}, nil
}

func (e *repoEnv) start(ctx context.Context, committer object.Signature) (*transaction.Transaction, error) {
	idx, err := index.New(e.db)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return transaction.Start(ctx, e.db, idx, e.stores, committer)
}

func defaultCommitter() object.Signature {
	name := os.Getenv("HUGEVCS_AUTHOR_NAME")
	if name == "" {
		name = "hugevcs"
	}
	email := os.Getenv("HUGEVCS_AUTHOR_EMAIL")
	if email == "" {
		email = "hugevcs@localhost"
	}
	return object.Signature{Name: name, Email: email}
}

// resolveRevision resolves s as "@" (the sole working-copy commit, when
// there is exactly one workspace), a commit-id hex string, or else a local
// bookmark name — the revset forms every driver's flags accept here.
func resolveRevision(ctx context.Context, repo *mutablerepo.MutableRepo, db *backend.Database, s string) (*object.Commit, error) {
	if s == "@" {
		wcs := repo.View().WCCommitIDs
		if len(wcs) != 1 {
			return nil, fmt.Errorf("@ is ambiguous with %d workspaces; name a commit id instead", len(wcs))
		}
		for _, id := range wcs {
			return db.Commit(ctx, id.Hash())
		}
	}
	if id, err := ids.CommitIdFromHex(s); err == nil {
		return db.Commit(ctx, id.Hash())
	}
	target, ok := repo.View().LocalBookmarks[s]
	if !ok {
		return nil, fmt.Errorf("no such revision: %s", s)
	}
	id, ok := target.AsNormal()
	if !ok {
		return nil, fmt.Errorf("bookmark %q is conflicted, name a commit id instead", s)
	}
	return db.Commit(ctx, id.Hash())
}

func runAbandon(args []string) error {
	fs := flag.NewFlagSet("abandon", flag.ExitOnError)
	root := fs.String("root", ".", "repository root")
	retainBookmarks := fs.Bool("retain-bookmarks", false, "keep bookmarks pointing at the rewritten replacement instead of deleting them")
	restoreDescendants := fs.Bool("restore-descendants", false, "reparent every descendant instead of rebasing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	revs := fs.Args()
	if len(revs) == 0 {
		return fmt.Errorf("abandon: at least one revision required")
	}

	ctx := context.Background()
	env, err := openRepo(*root)
	if err != nil {
		return err
	}
	tx, err := env.start(ctx, defaultCommitter())
	if err != nil {
		return err
	}
	repo := tx.Repo()

	revisions := make([]ids.CommitId, 0, len(revs))
	for _, r := range revs {
		c, err := resolveRevision(ctx, repo, env.db, r)
		if err != nil {
			return err
		}
		revisions = append(revisions, ids.NewCommitId(c.Hash))
	}

	result, err := command.Abandon(ctx, repo, revisions, command.AbandonOptions{
		RetainBookmarks:    *retainBookmarks,
		RestoreDescendants: *restoreDescendants,
	})
	if err != nil {
		return err
	}

	if _, err := tx.Finish(ctx, fmt.Sprintf("abandon %s", strings.Join(revs, " ")), transaction.FinishOptions{SkipAutoRebase: true}); err != nil {
		return err
	}
	fmt.Println(progress.Summary(result.Reparented, result.Rebased))
	for _, d := range result.DeletedBookmarks {
		fmt.Printf("deleted bookmark %s\n", d.Name)
	}
	return nil
}

func runRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	root := fs.String("root", ".", "repository root")
	from := fs.String("from", "", "revision to restore content from")
	into := fs.String("into", "@", "revision to restore content into")
	restoreDescendants := fs.Bool("restore-descendants", false, "reparent every descendant instead of rebasing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" {
		return fmt.Errorf("restore: --from is required")
	}

	ctx := context.Background()
	env, err := openRepo(*root)
	if err != nil {
		return err
	}
	tx, err := env.start(ctx, defaultCommitter())
	if err != nil {
		return err
	}
	repo := tx.Repo()

	fromCommit, err := resolveRevision(ctx, repo, env.db, *from)
	if err != nil {
		return err
	}
	intoCommit, err := resolveRevision(ctx, repo, env.db, *into)
	if err != nil {
		return err
	}

	result, err := command.Restore(ctx, repo, fromCommit, intoCommit, nil, nil, *restoreDescendants, nil)
	if err != nil {
		return err
	}

	if _, err := tx.Finish(ctx, fmt.Sprintf("restore --from %s --into %s", *from, *into), transaction.FinishOptions{SkipAutoRebase: true}); err != nil {
		return err
	}
	fmt.Println(progress.Summary(result.Reparented, result.Rebased))
	return nil
}

func runSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	root := fs.String("root", ".", "repository root")
	revision := fs.String("revision", "@", "revision to split")
	parallel := fs.Bool("parallel", false, "make the second commit a sibling of the first instead of stacking it on top")
	legacyBookmarks := fs.Bool("legacy-bookmark-behavior", false, "move bookmarks/working-copy pointers through the rewrite ledger instead of explicitly (default from split.legacy-bookmark-behavior in zeta.toml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setExplicitly := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "legacy-bookmark-behavior" {
			setExplicitly = true
		}
	})

	ctx := context.Background()
	env, err := openRepo(*root)
	if err != nil {
		return err
	}
	if !setExplicitly {
		if cfg, err := config.Load(*root); err == nil {
			*legacyBookmarks = cfg.Split.LegacyBookmarkBehavior
		}
	}
	tx, err := env.start(ctx, defaultCommitter())
	if err != nil {
		return err
	}
	repo := tx.Repo()

	target, err := resolveRevision(ctx, repo, env.db, *revision)
	if err != nil {
		return err
	}

	result, err := command.Split(ctx, repo, target, command.SplitOptions{
		Parallel:               *parallel,
		LegacyBookmarkBehavior: *legacyBookmarks,
	})
	if err != nil {
		return err
	}

	if _, err := tx.Finish(ctx, fmt.Sprintf("split %s", *revision), transaction.FinishOptions{SkipAutoRebase: true}); err != nil {
		return err
	}
	fmt.Printf("first: %s\nsecond: %s\n%s\n", result.First.Hash, result.Second.Hash, progress.Summary(0, result.Rebased))
	return nil
}

func runLog(args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	root := fs.String("root", ".", "repository root")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	env, err := openRepo(*root)
	if err != nil {
		return err
	}
	idx, err := index.New(env.db)
	if err != nil {
		return err
	}
	heads, err := env.stores.OpHeads.GetOpHeads()
	if err != nil {
		return err
	}
	if heads[0].IsRoot() {
		fmt.Println("(empty repository)")
		return nil
	}
	op, err := env.stores.Operations.ReadOperation(heads[0])
	if err != nil {
		return err
	}
	_ = idx // index is opened to validate the store is readable, not walked here
	fmt.Printf("@ %s\n", op.Description)
	return nil
}
