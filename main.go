package RunDB

import (
	"github.com/rundb/RunDB/db"
	"github.com/rundb/RunDB/ps"
)

type Instance struct {
	Store *ps.Store
}

func Open(path string, opts *ps.Options) (*Instance, error) {
	store, err := ps.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &Instance{Store: store}, nil
}

func OpenMemory(opts *ps.Options) (*Instance, error) {
	store, err := ps.OpenMemory(opts)
	if err != nil {
		return nil, err
	}
	return &Instance{Store: store}, nil
}

func (instance *Instance) Engine(mode db.CommitMode) *db.Engine {
	return db.NewEngine(instance.Store, mode)
}

func (instance *Instance) Close() error {
	return instance.Store.Close()
}
