// Package pager owns the database file and the in-memory page cache.
//
// A Pager is the only thing allowed to read or write the underlying file.
// It performs read-through on first touch, never evicts, and only grows
// the file when a page is explicitly flushed — never merely on load.
package pager

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// PageSize is the fixed size, in bytes, of every page in the file.
	PageSize = 4096
	// TableMaxPages bounds the pager's slot table. A page number at or
	// beyond this is out of bounds.
	TableMaxPages = 100
)

// ErrCorrupt indicates the database file's length is not a whole multiple
// of PageSize, or some other structural impossibility was observed.
var ErrCorrupt = errors.New("pager: corrupt database file")

// ErrPageOutOfBounds indicates a page number at or beyond TableMaxPages.
var ErrPageOutOfBounds = errors.New("pager: page number out of bounds")

// ErrFlushEmptySlot indicates an attempt to flush a page slot that was
// never loaded or allocated. This is a programming error in the caller.
var ErrFlushEmptySlot = errors.New("pager: flush of empty page slot")

// Page is one fixed-size, in-memory copy of a page. Pages are owned
// exclusively by the Pager that produced them via GetPage.
type Page struct {
	Data [PageSize]byte
}

// Pager is the file-backed page cache. It performs no eviction: once a
// page is loaded it stays resident until Close.
type Pager struct {
	fs       afero.Fs
	file     afero.File
	pages    [TableMaxPages]*Page
	numPages int

	log *logrus.Entry
}

// Open opens path for read+write on fs, creating it with owner-only
// permissions if it does not exist. fs is normally afero.NewOsFs(); tests
// may pass afero.NewMemMapFs() to avoid touching a real filesystem.
//
// The file's length must be a whole multiple of PageSize; anything else
// is treated as a fatal corruption (ErrCorrupt) rather than silently
// truncated or padded.
func Open(fs afero.Fs, path string) (*Pager, error) {
	log := logrus.WithField("component", "pager").WithField("path", path)

	f, err := fs.OpenFile(path, fileOpenFlags, 0o600)
	if err != nil {
		log.WithError(err).Error("open database file")
		return nil, errors.Wrap(err, "pager: open")
	}

	info, err := f.Stat()
	if err != nil {
		log.WithError(err).Error("stat database file")
		return nil, errors.Wrap(err, "pager: stat")
	}

	size := info.Size()
	if size%PageSize != 0 {
		log.WithField("size", size).Error("database file is not a whole number of pages")
		return nil, errors.Wrapf(ErrCorrupt, "file length %d is not a multiple of page size %d", size, PageSize)
	}

	p := &Pager{
		fs:       fs,
		file:     f,
		numPages: int(size / PageSize),
		log:      log,
	}
	log.WithField("num_pages", p.numPages).Debug("pager opened")
	return p, nil
}

// NumPages reports the number of distinct pages the pager has allocated.
func (p *Pager) NumPages() uint32 {
	return uint32(p.numPages)
}

// GetUnusedPageNum returns the page number that the next allocation would
// use. Allocation is strictly append-only: there is no free list.
func (p *Pager) GetUnusedPageNum() uint32 {
	return uint32(p.numPages)
}

// GetPage returns the resident page for pageNum, loading it from disk on
// first touch. A page beyond the current end of file is returned zeroed;
// the file itself only grows when that page is later flushed.
func (p *Pager) GetPage(pageNum uint32) (*Page, error) {
	if pageNum >= TableMaxPages {
		p.log.WithField("page", pageNum).Error("page number out of bounds")
		return nil, errors.Wrapf(ErrPageOutOfBounds, "page %d >= %d", pageNum, TableMaxPages)
	}

	if p.pages[pageNum] == nil {
		page := &Page{}
		if uint64(pageNum) < uint64(p.numPages) {
			if err := p.readPage(pageNum, page); err != nil {
				return nil, err
			}
		}
		p.pages[pageNum] = page
		if int(pageNum) >= p.numPages {
			p.numPages = int(pageNum) + 1
		}
	}
	return p.pages[pageNum], nil
}

func (p *Pager) readPage(pageNum uint32, page *Page) error {
	off := int64(pageNum) * PageSize
	if _, err := p.file.Seek(off, io.SeekStart); err != nil {
		return errors.Wrapf(err, "pager: seek page %d", pageNum)
	}
	if _, err := io.ReadFull(p.file, page.Data[:]); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		p.log.WithError(err).WithField("page", pageNum).Error("read page")
		return errors.Wrapf(err, "pager: read page %d", pageNum)
	}
	return nil
}

// FlushPage writes slot pageNum's full PageSize bytes back to the file at
// its offset. Flushing an empty (never loaded/allocated) slot is a
// programming error and returns ErrFlushEmptySlot.
func (p *Pager) FlushPage(pageNum uint32) error {
	if pageNum >= TableMaxPages || p.pages[pageNum] == nil {
		return errors.Wrapf(ErrFlushEmptySlot, "page %d", pageNum)
	}
	page := p.pages[pageNum]
	off := int64(pageNum) * PageSize
	if _, err := p.file.Seek(off, io.SeekStart); err != nil {
		return errors.Wrapf(err, "pager: seek page %d for flush", pageNum)
	}
	if _, err := p.file.Write(page.Data[:]); err != nil {
		p.log.WithError(err).WithField("page", pageNum).Error("flush page")
		return errors.Wrapf(err, "pager: write page %d", pageNum)
	}
	return nil
}

// Close flushes every resident page and closes the underlying file.
func (p *Pager) Close() error {
	for i := 0; i < TableMaxPages; i++ {
		if p.pages[i] == nil {
			continue
		}
		if err := p.FlushPage(uint32(i)); err != nil {
			return err
		}
		p.pages[i] = nil
	}
	p.log.Debug("pager closed")
	return p.file.Close()
}
