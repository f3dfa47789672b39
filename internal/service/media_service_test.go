package service

import (
	"alcyxob/coach-app/internal/domain"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeStorage records presign requests instead of talking to S3.
type fakeStorage struct {
	mu      sync.Mutex
	uploads []string
	deleted []string
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, key)
	return "https://s3.test/put/" + key + "?ct=" + contentType, nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, expires time.Duration) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

func TestMediaService(t *testing.T) {
	f := newFixture(t)
	fs := &fakeStorage{}
	media := NewMediaService(f.access, f.store.ProgramItems(), f.store.ClientPrograms(), fs, time.Minute)
	p := f.program(1)
	item, err := f.programs.AddItem(f.ctx, f.coach.ID, p.Program.ID, p.Days[0].Day.ID,
		ItemInput{Type: domain.ItemTypeVideo, Title: "Hip opener"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = media.RequestItemUploadURL(f.ctx, f.coach.ID, item.ID, "text/html")
	assertErr(t, err, ErrUnsupportedMedia)

	ticket, err := media.RequestItemUploadURL(f.ctx, f.coach.ID, item.ID, "video/mp4")
	if err != nil {
		t.Fatalf("RequestItemUploadURL: %v", err)
	}
	prefix := "programs/" + p.Program.ID.Hex() + "/items/" + item.ID.Hex() + "/"
	if !strings.HasPrefix(ticket.ObjectKey, prefix) || !strings.HasSuffix(ticket.ObjectKey, ".mp4") {
		t.Errorf("unexpected object key %q", ticket.ObjectKey)
	}

	_, err = media.ItemDownloadURL(f.ctx, f.coach.ID, item.ID)
	assertErr(t, err, ErrNoMedia)

	if _, err := f.programs.UpdateItem(f.ctx, f.coach.ID, item.ID, ItemUpdate{
		Content: domain.Content{"objectKey": ticket.ObjectKey},
	}); err != nil {
		t.Fatal(err)
	}

	// Client without an assignment to the program is refused.
	_, err = media.ItemDownloadURL(f.ctx, f.client.ID, item.ID)
	assertErr(t, err, ErrProgramAccessDenied)

	f.assign(p, f.client)
	url, err := media.ItemDownloadURL(f.ctx, f.client.ID, item.ID)
	if err != nil {
		t.Fatalf("ItemDownloadURL: %v", err)
	}
	if url != "https://s3.test/get/"+ticket.ObjectKey {
		t.Errorf("unexpected url %q", url)
	}

	updated, err := media.RemoveItemMedia(f.ctx, f.coach.ID, item.ID)
	if err != nil {
		t.Fatalf("RemoveItemMedia: %v", err)
	}
	if _, ok := updated.Content["objectKey"]; ok {
		t.Error("objectKey should be cleared")
	}
	if len(fs.deleted) != 1 || fs.deleted[0] != ticket.ObjectKey {
		t.Errorf("expected %q deleted, got %v", ticket.ObjectKey, fs.deleted)
	}
	_, err = media.RemoveItemMedia(f.ctx, f.coach.ID, item.ID)
	assertErr(t, err, ErrNoMedia)

	if _, err := f.programs.UpdateItem(f.ctx, f.coach.ID, item.ID, ItemUpdate{
		Content: domain.Content{"objectKey": "programs/elsewhere/secret.mp4"},
	}); err != nil {
		t.Fatal(err)
	}
	_, err = media.ItemDownloadURL(f.ctx, f.coach.ID, item.ID)
	assertErr(t, err, ErrBadObjectKey)
}
