package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"encoding/json"
	"sync"
	"unsafe"

	"github.com/rundb/RunDB"
	"github.com/rundb/RunDB/db"
	"github.com/rundb/RunDB/ps"
)

// Handle represents an open database instance
type Handle struct {
	instance *RunDB.Instance
	engine   *db.Engine
}

var (
	handlesMu  sync.Mutex
	handles    = make(map[int]*Handle)
	nextHandle = 1
)

// Response is the envelope every call returns
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type QueryResponse struct {
	Columns          []string   `json:"columns"`
	Data             [][]string `json:"data"`
	RecordsRead      int        `json:"records_read"`
	ExecutionTimeSec float64    `json:"execution_time_sec"`
}

type CommitResponse struct {
	RowsAffected     int64   `json:"rows_affected"`
	LastInsertID     int64   `json:"last_insert_id,omitempty"`
	Committed        bool    `json:"committed"`
	ExecutionTimeSec float64 `json:"execution_time_sec"`
}

func storeHandle(instance *RunDB.Instance) C.int {
	handlesMu.Lock()
	defer handlesMu.Unlock()

	handle := nextHandle
	nextHandle++
	handles[handle] = &Handle{
		instance: instance,
		engine:   instance.Engine(db.CommitEachStatement),
	}
	return C.int(handle)
}

func driverOptions(driver *C.char) *ps.Options {
	if driver == nil {
		return nil
	}
	name := C.GoString(driver)
	if name == "" {
		return nil
	}
	return &ps.Options{Driver: name}
}

//export rundb_open_memory
func rundb_open_memory(driver *C.char) C.int {
	instance, err := RunDB.OpenMemory(driverOptions(driver))
	if err != nil {
		return -1
	}
	return storeHandle(instance)
}

//export rundb_open
func rundb_open(path *C.char, driver *C.char) C.int {
	instance, err := RunDB.Open(C.GoString(path), driverOptions(driver))
	if err != nil {
		return -1
	}
	return storeHandle(instance)
}

//export rundb_close
func rundb_close(handle C.int) {
	handlesMu.Lock()
	h, ok := handles[int(handle)]
	delete(handles, int(handle))
	handlesMu.Unlock()

	if ok {
		h.engine.Close()
	}
}

//export rundb_execute
func rundb_execute(handle C.int, query *C.char) *C.char {
	handlesMu.Lock()
	h, ok := handles[int(handle)]
	handlesMu.Unlock()
	if !ok {
		return makeErrorResponse("invalid handle")
	}

	result, err := h.engine.Execute(C.GoString(query))
	if err != nil {
		return makeErrorResponse(err.Error())
	}

	var resp Response

	switch r := result.(type) {
	case db.QueryResult:
		qr := QueryResponse{
			Columns:          r.Columns,
			Data:             r.Data,
			RecordsRead:      r.RecordsRead,
			ExecutionTimeSec: r.ExecutionTimeSec,
		}
		data, _ := json.Marshal(qr)
		resp = Response{
			Success: true,
			Type:    "query",
			Result:  data,
		}

	case db.CommitResult:
		cr := CommitResponse{
			RowsAffected:     r.RowsAffected,
			LastInsertID:     r.LastInsertID,
			Committed:        r.Committed,
			ExecutionTimeSec: r.ExecutionTimeSec,
		}
		data, _ := json.Marshal(cr)
		resp = Response{
			Success: true,
			Type:    "commit",
			Result:  data,
		}

	default:
		resp = Response{
			Success: true,
			Type:    "unknown",
		}
	}

	jsonData, _ := json.Marshal(resp)
	return C.CString(string(jsonData))
}

//export rundb_free
func rundb_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func makeErrorResponse(msg string) *C.char {
	resp := Response{
		Success: false,
		Error:   msg,
	}
	jsonData, _ := json.Marshal(resp)
	return C.CString(string(jsonData))
}

func main() {}
