// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/internal/protect/postgres"
)

var _ = Describe("Store", Ordered, func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		dsn       string
		now       time.Time
		store     *postgres.Store
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("frameguard_test"),
			tcpostgres.WithUsername("frameguard"),
			tcpostgres.WithPassword("frameguard"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		m, err := postgres.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Up()).To(Succeed())
		Expect(m.Close()).To(Succeed())
	})

	AfterAll(func() {
		_ = container.Terminate(ctx)
	})

	BeforeEach(func() {
		now = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		var err error
		store, err = postgres.Open(ctx, dsn, postgres.Options{
			QueryTimeout:    5 * time.Second,
			ConnectAttempts: 3,
			Clock:           func() time.Time { return now },
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		store.Close()
	})

	create := func(world, uuid string, pos protect.BlockPos) error {
		w, err := store.ResolveWorld(ctx, world)
		Expect(err).NotTo(HaveOccurred())
		a, err := store.ResolveActor(ctx, uuid, "player")
		Expect(err).NotTo(HaveOccurred())
		return store.Create(ctx, protect.NewRecord{
			Owner: a, World: w, Pos: pos, Face: protect.FaceSouth,
			Anchor: pos.Relative(protect.FaceNorth), AnchorMaterial: "STONE",
		})
	}

	It("admits exactly one of many concurrent creates", func() {
		pos := protect.BlockPos{X: 100, Y: 64, Z: 100}
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				err := create("race", "00000000-0000-0000-0000-000000000001", pos)
				if err == nil {
					mu.Lock()
					winners++
					mu.Unlock()
					return
				}
				Expect(protect.Code(err)).To(Equal(protect.CodeAlreadyProtected))
			}()
		}
		wg.Wait()
		Expect(winners).To(Equal(1))
	})

	It("cascades the world and actor when the last record goes", func() {
		pos := protect.BlockPos{X: 1, Y: 70, Z: 1}
		Expect(create("cascade", "00000000-0000-0000-0000-000000000002", pos)).To(Succeed())
		w, ok, err := store.LookupWorld(ctx, "cascade")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		Expect(store.Remove(ctx, w, pos)).To(Succeed())

		exists, err := store.WorldExists(ctx, w)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
		_, ok, err = store.LookupActor(ctx, "00000000-0000-0000-0000-000000000002")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		again, err := store.ResolveWorld(ctx, "cascade")
		Expect(err).NotTo(HaveOccurred())
		Expect(again).NotTo(Equal(w))
	})

	It("purges only records older than the cutoff", func() {
		old := protect.BlockPos{X: 5, Y: 70, Z: 5}
		Expect(create("purge", "00000000-0000-0000-0000-000000000003", old)).To(Succeed())
		now = now.Add(10 * 24 * time.Hour)
		fresh := protect.BlockPos{X: 6, Y: 70, Z: 5}
		Expect(create("purge", "00000000-0000-0000-0000-000000000004", fresh)).To(Succeed())

		n, err := store.PurgeOlderThan(ctx, 7)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeNumerically(">=", 1))

		w, ok, err := store.LookupWorld(ctx, "purge")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		protected, err := store.IsProtected(ctx, w, fresh)
		Expect(err).NotTo(HaveOccurred())
		Expect(protected).To(BeTrue())
		protected, err = store.IsProtected(ctx, w, old)
		Expect(err).NotTo(HaveOccurred())
		Expect(protected).To(BeFalse())
		_, ok, err = store.LookupActor(ctx, "00000000-0000-0000-0000-000000000003")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})
})
