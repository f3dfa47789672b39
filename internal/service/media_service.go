package service

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"alcyxob/coach-app/internal/storage"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// contentObjectKey is the content field holding an item's uploaded media key.
const contentObjectKey = "objectKey"

// UploadTicket is a presigned PUT plus the key to store on the item once the
// upload has finished.
type UploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MediaService issues presigned URLs for media attached to program items.
type MediaService interface {
	RequestItemUploadURL(ctx context.Context, coachID, itemID primitive.ObjectID, contentType string) (*UploadTicket, error)
	// ItemDownloadURL is open to the owning coach and to clients with an
	// assignment to the item's program.
	ItemDownloadURL(ctx context.Context, userID, itemID primitive.ObjectID) (string, error)
	// RemoveItemMedia deletes the stored object and clears the item's objectKey.
	RemoveItemMedia(ctx context.Context, coachID, itemID primitive.ObjectID) (*domain.ProgramItem, error)
}

type mediaService struct {
	access            AccessResolver
	itemRepo          repository.ProgramItemRepository
	clientProgramRepo repository.ClientProgramRepository
	fileStorage       storage.FileStorage
	expiry            time.Duration
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(
	access AccessResolver,
	itemRepo repository.ProgramItemRepository,
	clientProgramRepo repository.ClientProgramRepository,
	fileStorage storage.FileStorage,
	expiry time.Duration,
) MediaService {
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	return &mediaService{
		access:            access,
		itemRepo:          itemRepo,
		clientProgramRepo: clientProgramRepo,
		fileStorage:       fileStorage,
		expiry:            expiry,
	}
}

func (s *mediaService) RequestItemUploadURL(ctx context.Context, coachID, itemID primitive.ObjectID, contentType string) (*UploadTicket, error) {
	access, err := s.access.CoachItem(ctx, coachID, itemID)
	if err != nil {
		return nil, err
	}
	ext, ok := storage.ExtensionFor(contentType)
	if !ok {
		return nil, ErrUnsupportedMedia
	}

	key := storage.ItemObjectKey(access.Program.ID.Hex(), itemID.Hex(), uuid.NewString(), ext)
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, s.expiry)
	if err != nil {
		return nil, err
	}
	return &UploadTicket{
		UploadURL: url,
		ObjectKey: key,
		ExpiresAt: time.Now().UTC().Add(s.expiry),
	}, nil
}

func (s *mediaService) ItemDownloadURL(ctx context.Context, userID, itemID primitive.ObjectID) (string, error) {
	item, err := s.readableItem(ctx, userID, itemID)
	if err != nil {
		return "", err
	}
	key, _ := item.Content[contentObjectKey].(string)
	if key == "" {
		return "", ErrNoMedia
	}
	if !storage.HasItemPrefix(key, item.ProgramID.Hex(), item.ID.Hex()) {
		return "", ErrBadObjectKey
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, key, s.expiry)
}

func (s *mediaService) readableItem(ctx context.Context, userID, itemID primitive.ObjectID) (*domain.ProgramItem, error) {
	access, err := s.access.CoachItem(ctx, userID, itemID)
	if err == nil {
		return access.Item, nil
	}
	if !errors.Is(err, ErrNotCoach) {
		return nil, err
	}

	client, err := s.access.Client(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	assigned, err := s.clientProgramRepo.HasClientAssignment(ctx, client.ID, item.ProgramID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ErrProgramAccessDenied
	}
	return item, nil
}

func (s *mediaService) RemoveItemMedia(ctx context.Context, coachID, itemID primitive.ObjectID) (*domain.ProgramItem, error) {
	access, err := s.access.CoachItem(ctx, coachID, itemID)
	if err != nil {
		return nil, err
	}
	item := access.Item
	key, _ := item.Content[contentObjectKey].(string)
	if key == "" {
		return nil, ErrNoMedia
	}
	if !storage.HasItemPrefix(key, item.ProgramID.Hex(), item.ID.Hex()) {
		return nil, ErrBadObjectKey
	}
	if err := s.fileStorage.DeleteObject(ctx, key); err != nil {
		return nil, err
	}

	content := make(domain.Content, len(item.Content))
	for k, v := range item.Content {
		if k != contentObjectKey {
			content[k] = v
		}
	}
	item.Content = content
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
