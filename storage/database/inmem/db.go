// Package inmemdb keeps every table in process memory. It backs the test
// suites and serves as the session fallback store when the database
// degrades.
package inmemdb

import (
	"sync"

	"github.com/kitabiapp/kitabi/core/admincp"
	"github.com/kitabiapp/kitabi/core/certificate"
	"github.com/kitabiapp/kitabi/core/device"
	"github.com/kitabiapp/kitabi/core/exercise"
	"github.com/kitabiapp/kitabi/core/gamify"
	"github.com/kitabiapp/kitabi/core/reading"
	"github.com/kitabiapp/kitabi/core/session"
	"github.com/kitabiapp/kitabi/core/user"
)

type (
	DB struct {
		user        *userTable
		device      *deviceTable
		session     *sessionTable
		reading     *readingTable
		exercise    *exerciseTable
		gamify      *gamifyTable
		certificate *certificateTable
		admincp     *adminCPTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	deviceTable struct {
		sync.RWMutex
		table map[string]*device.Device // by ID
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session // by token
	}

	readingTable struct {
		sync.RWMutex
		progress  map[string]*reading.Progress // by user ID
		bookmarks map[string]*reading.Bookmark // by ID
	}

	exerciseTable struct {
		sync.RWMutex
		progress map[string]*exercise.Progress  // by user ID + "/" + exercise ID
		stats    map[string]*exercise.TypeStats // by user ID + "/" + type
	}

	gamifyTable struct {
		sync.RWMutex
		aggregates map[string]*gamify.Aggregate // by user ID
		history    []gamify.PointsEntry
		badges     map[string]*gamify.Badge    // by ID
		awarded    map[string]gamify.UserBadge // by user ID + "/" + badge ID
	}

	certificateTable struct {
		sync.RWMutex
		table map[string]*certificate.Certificate // by user ID
	}

	adminCPTable struct {
		sync.RWMutex
		codes        map[string]*admincp.VerificationCode // by code
		testimonials map[string]*admincp.Testimonial      // by ID
		settings     *admincp.SiteSettings
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		device:  &deviceTable{table: make(map[string]*device.Device)},
		session: &sessionTable{table: make(map[string]*session.Session)},
		reading: &readingTable{
			progress:  make(map[string]*reading.Progress),
			bookmarks: make(map[string]*reading.Bookmark),
		},
		exercise: &exerciseTable{
			progress: make(map[string]*exercise.Progress),
			stats:    make(map[string]*exercise.TypeStats),
		},
		gamify: &gamifyTable{
			aggregates: make(map[string]*gamify.Aggregate),
			badges:     make(map[string]*gamify.Badge),
			awarded:    make(map[string]gamify.UserBadge),
		},
		certificate: &certificateTable{table: make(map[string]*certificate.Certificate)},
		admincp: &adminCPTable{
			codes:        make(map[string]*admincp.VerificationCode),
			testimonials: make(map[string]*admincp.Testimonial),
		},
	}
	return db, nil
}

func key(parts ...string) string {
	k := parts[0]
	for _, p := range parts[1:] {
		k += "/" + p
	}
	return k
}
