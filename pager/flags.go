package pager

import "os"

// fileOpenFlags mirrors the original engine's pager_open: read+write,
// creating the file if it does not exist.
const fileOpenFlags = os.O_RDWR | os.O_CREATE
