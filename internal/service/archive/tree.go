package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"univault/internal/config"
	"univault/internal/domain"
	authModels "univault/internal/domain/models"
	models "univault/internal/domain/models/archive"
	archiveRepo "univault/internal/domain/repositories/archive"
	archiveSvc "univault/internal/domain/services/archive"
)

// TreeBuilder produces a depth-limited view of the directory tree.
// Expansion stops at the requested depth; nodes cut off there report
// HasChildren without Children, and the caller re-requests the tree
// rooted at such a node to go deeper. Response cost is bounded by the
// requested depth, never by the size of the whole tree.
type TreeBuilder struct {
	folders  archiveRepo.FolderRepository
	resolver *Resolver
	policy   archiveSvc.AccessPolicy
	logger   *slog.Logger
}

// NewTreeBuilder creates the directory tree service.
func NewTreeBuilder(
	folders archiveRepo.FolderRepository,
	resolver *Resolver,
	policy archiveSvc.AccessPolicy,
	logger *slog.Logger,
) archiveSvc.TreeService {
	return &TreeBuilder{
		folders:  folders,
		resolver: resolver,
		policy:   policy,
		logger:   logger,
	}
}

// Tree builds the tree rooted at path, expanding depth levels below it.
func (b *TreeBuilder) Tree(ctx context.Context, dirPath string, depth int, principal *authModels.Principal) (*models.TreeNode, error) {
	norm := b.resolver.Normalize(dirPath)
	if err := b.resolver.ValidateSyntax(norm); err != nil {
		return nil, err
	}

	if depth < 1 {
		depth = 1
	}
	if depth > config.MaxTreeDepth {
		depth = config.MaxTreeDepth
	}

	if !b.policy.CanRead(ctx, norm, principal) {
		return nil, fmt.Errorf("directory at %q: %w", norm, domain.ErrNotFound)
	}

	if _, _, err := b.resolver.ResolveExistingDir(norm); err != nil {
		return nil, err
	}

	return b.buildNode(ctx, norm, depth, principal)
}

// buildNode constructs the node for one directory, recursing into
// child directories while remaining depth allows.
func (b *TreeBuilder) buildNode(ctx context.Context, norm string, remaining int, principal *authModels.Principal) (*models.TreeNode, error) {
	abs, info, err := b.resolver.ResolveExistingDir(norm)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("scan directory %q: %w", norm, err)
	}

	node := &models.TreeNode{
		Name:      path.Base("/" + norm),
		Path:      norm,
		Type:      models.FolderTypeForDepth(len(splitSegments(norm)) - 1),
		Children:  []*models.TreeNode{},
		CanWrite:  b.policy.CanWrite(ctx, norm, principal),
		CanDelete: norm != "" && b.policy.CanDelete(ctx, norm, principal),
		ETag:      directoryETag(info.ModTime(), entries),
	}
	if norm == "" {
		node.Name = ""
		node.Type = ""
	}

	if norm != "" {
		if row, err := b.folders.GetByPath(ctx, norm); err == nil {
			node.EntityID = row.ID
			node.Type = row.Type
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	var childDirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			node.FolderCount++
			childDirs = append(childDirs, entry.Name())
		} else {
			node.FileCount++
		}
	}
	node.HasChildren = node.FolderCount+node.FileCount > 0

	if remaining < 1 {
		// Depth limit reached: signal "more below" and stop.
		node.ChildrenLoaded = false
		return node, nil
	}

	sort.Slice(childDirs, func(i, j int) bool {
		return strings.ToLower(childDirs[i]) < strings.ToLower(childDirs[j])
	})

	node.ChildrenLoaded = true
	for _, name := range childDirs {
		childPath := name
		if norm != "" {
			childPath = norm + "/" + name
		}

		// Subtrees the principal cannot read are omitted, not errored,
		// so a browsable parent never leaks their structure.
		if !b.policy.CanRead(ctx, childPath, principal) {
			continue
		}

		child, err := b.buildNode(ctx, childPath, remaining-1, principal)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}
