// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package guard_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/frameguard/internal/guard"
	"github.com/holomush/frameguard/internal/messages"
	"github.com/holomush/frameguard/internal/protect"
	"github.com/holomush/frameguard/internal/protect/sqlite"
)

var _ = Describe("Protecting decorations against a sqlite store", func() {
	var (
		ctx    context.Context
		now    time.Time
		store  *sqlite.Store
		geo    *world
		engine *guard.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		var err error
		store, err = sqlite.Open(ctx, filepath.Join(GinkgoT().TempDir(), "guard.db"), sqlite.Options{
			QueryTimeout: 5 * time.Second,
			Logger:       discardLogger(),
			Clock:        func() time.Time { return now },
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		geo = newWorld()
		geo.set(anchorPos, "OAK_PLANKS")
		engine = newEngine(store, geo, guard.Options{})
	})

	punch := func(actor *guard.Actor) guard.Decision {
		return engine.Decide(ctx, guard.Notification{
			Kind: guard.DecorationDamage, World: overworld, Actor: actor, Decoration: frame,
		})
	}

	Describe("lock, defend, unlock", func() {
		It("walks a frame through its whole protected life", func() {
			engine.RequestLock(*alice)
			d := punch(alice)
			Expect(d.Denied()).To(BeTrue())
			Expect(d.Notices).To(ConsistOf(HaveField("Key", messages.Locked)))

			By("refusing to let another player break the anchor")
			d = engine.Decide(ctx, guard.Notification{
				Kind: guard.BlockBreak, World: overworld, Actor: bob, Target: anchorPos,
			})
			Expect(d.Verdict).To(Equal(guard.Deny))
			Expect(d.Reason).To(Equal(guard.ReasonAnchor))

			By("telling the other player who owns it")
			d = punch(bob)
			Expect(d.Notices).To(ConsistOf(HaveField("Text", "Locked by Alice.")))

			By("letting the owner unlock it")
			engine.RequestUnlock(*alice)
			d = punch(alice)
			Expect(d.Notices).To(ConsistOf(HaveField("Key", messages.Unlocked)))

			_, known, err := store.LookupWorld(ctx, overworld)
			Expect(err).NotTo(HaveOccurred())
			Expect(known).To(BeFalse(), "the last unlock cascades the world row")

			d = engine.Decide(ctx, guard.Notification{
				Kind: guard.BlockBreak, World: overworld, Actor: bob, Target: anchorPos,
			})
			Expect(d.Verdict).To(Equal(guard.Allow))
		})
	})

	Describe("pistons", func() {
		BeforeEach(func() {
			engine.RequestLock(*alice)
			Expect(punch(alice).Notices).To(ConsistOf(HaveField("Key", messages.Locked)))
		})

		It("blocks a push that slides a block next to the frame", func() {
			d := engine.Decide(ctx, guard.Notification{
				Kind: guard.PistonExtend, World: overworld,
				Target: protect.BlockPos{X: -3, Y: 65, Z: 1}, Direction: protect.FaceEast,
				Moved: []protect.BlockPos{{X: -2, Y: 65, Z: 1}, {X: -1, Y: 65, Z: 1}},
			})
			Expect(d.Denied()).To(BeTrue())
		})

		It("blocks pushing the anchor itself", func() {
			d := engine.Decide(ctx, guard.Notification{
				Kind: guard.PistonExtend, World: overworld,
				Target: protect.BlockPos{X: 0, Y: 65, Z: -2}, Direction: protect.FaceSouth,
				Moved: []protect.BlockPos{{X: 0, Y: 65, Z: -1}, anchorPos},
			})
			Expect(d.Denied()).To(BeTrue())
		})

		It("allows a retraction that leaves air behind", func() {
			d := engine.Decide(ctx, guard.Notification{
				Kind: guard.PistonRetract, World: overworld,
				Target: protect.BlockPos{X: 1, Y: 65, Z: 3}, Direction: protect.FaceNorth,
			})
			Expect(d.Verdict).To(Equal(guard.Allow))
		})
	})

	Describe("retention", func() {
		It("forgets locks older than the horizon", func() {
			engine.RequestLock(*alice)
			punch(alice)

			now = now.Add(31 * 24 * time.Hour)
			purged, err := store.PurgeOlderThan(ctx, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(purged).To(BeEquivalentTo(1))

			_, err = engine.QueryOwner(ctx, overworld, framePos)
			Expect(protect.Code(err)).To(Equal(protect.CodeNotFound))
			Expect(punch(bob).Verdict).To(Equal(guard.Allow))
		})
	})

	Describe("storage outage", func() {
		It("denies once the store is closed", func() {
			engine.RequestLock(*alice)
			punch(alice)
			store.Close()

			d := punch(bob)
			Expect(d.Denied()).To(BeTrue())
			Expect(d.Reason).To(Equal(guard.ReasonStorageError))
		})
	})
})
