package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DuplicateService answers "does this drive already hold an equivalent
// file". An exact duplicate shares content hash and size; a name duplicate
// merely shares the original filename somewhere in the drive. Exact wins
// when both apply.
type DuplicateService struct {
	files FileStore
}

func NewDuplicateService(files FileStore) *DuplicateService {
	return &DuplicateService{files: files}
}

// CheckBatch checks every candidate against the drive's active files.
// Results come back in candidate order; a failed lookup fails the whole
// batch rather than returning a partial answer.
func (ds *DuplicateService) CheckBatch(ctx context.Context, driveID primitive.ObjectID, candidates []FileCandidate) ([]DuplicateResult, error) {
	results := make([]DuplicateResult, len(candidates))
	for i, cand := range candidates {
		if cand.Hash != "" {
			existing, err := ds.files.FindByHash(ctx, driveID, cand.Hash, cand.Size)
			if err != nil {
				return nil, fmt.Errorf("failed to check content duplicate: %v", err)
			}
			if existing != nil {
				results[i] = DuplicateResult{IsDuplicate: true, DuplicateType: "exact", ExistingFileID: existing.ID}
				continue
			}
		}

		existing, err := ds.files.FindByOriginalName(ctx, driveID, cand.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check name duplicate: %v", err)
		}
		if existing != nil {
			results[i] = DuplicateResult{IsDuplicate: true, DuplicateType: "name", ExistingFileID: existing.ID}
		}
	}
	return results, nil
}
