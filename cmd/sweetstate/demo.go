package main

import (
	"context"
	"strconv"
	"time"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// counterState is the demo counter store's state.
type counterState struct {
	Count int `json:"count"`
}

type counterActions struct {
	Increment func(by int) any
	Reset     func() any
}

var counterStore = store.Create(store.Config[counterState, counterActions]{
	Name: "counter",
	Actions: func(d *store.Dispatcher[counterState, counterActions]) counterActions {
		return counterActions{
			Increment: func(by int) any {
				return d.Named("increment", func(api *store.API[counterState, counterActions], _ any) any {
					api.SetState(func(s *counterState) { s.Count += by })
					return api.GetState().Count
				})
			},
			Reset: func() any {
				return d.Named("reset", func(api *store.API[counterState, counterActions], _ any) any {
					api.SetState(func(s *counterState) { s.Count = 0 })
					return nil
				})
			},
		}
	},
})

type todo struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// todoState is the demo todo store's state.
type todoState struct {
	Items  []todo `json:"items"`
	NextID int    `json:"nextId"`
}

type todoActions struct {
	Add    func(title string) any
	Toggle func(id int) any
}

var todoStore = store.Create(store.Config[todoState, todoActions]{
	Name:         "todos",
	InitialState: todoState{NextID: 1},
	Actions: func(d *store.Dispatcher[todoState, todoActions]) todoActions {
		return todoActions{
			Add: func(title string) any {
				return d.Named("add", func(api *store.API[todoState, todoActions], _ any) any {
					var id int
					api.SetState(func(s *todoState) {
						id = s.NextID
						// Copy so the previous state's slice is never shared.
						items := make([]todo, len(s.Items), len(s.Items)+1)
						copy(items, s.Items)
						s.Items = append(items, todo{ID: id, Title: title})
						s.NextID++
					})
					return id
				})
			},
			Toggle: func(id int) any {
				return d.Named("toggle", func(api *store.API[todoState, todoActions], _ any) any {
					api.SetState(func(s *todoState) {
						items := make([]todo, len(s.Items))
						copy(items, s.Items)
						for i := range items {
							if items[i].ID == id {
								items[i].Done = !items[i].Done
							}
						}
						s.Items = items
					})
					return nil
				})
			},
		}
	},
})

// demo is the running demo application.
type demo struct {
	registry *store.Registry
	counter  *store.Instance[counterState, counterActions]
	todos    *store.Instance[todoState, todoActions]
}

// newDemo instantiates the demo stores in the global scope of r.
func newDemo(r *store.Registry) *demo {
	return &demo{
		registry: r,
		counter:  store.GetStore(r, counterStore, store.GlobalScope),
		todos:    store.GetStore(r, todoStore, store.GlobalScope),
	}
}

// step performs one round of demo activity as a single batch.
func (d *demo) step(n int) {
	d.registry.Batch(func() {
		d.counter.Actions().Increment(1)
		if n%5 == 0 {
			d.todos.Actions().Add("task " + strconv.Itoa(n))
		}
		if n%3 == 0 {
			if items := d.todos.State().GetState().Items; len(items) > 0 {
				d.todos.Actions().Toggle(items[n%len(items)].ID)
			}
		}
	})
}

// run steps every interval until ctx is done.
func (d *demo) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.step(n)
		}
	}
}
