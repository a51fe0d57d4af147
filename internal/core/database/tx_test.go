package database_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/crm/internal/core/database"
)

type note struct {
	ID   int64 `gorm:"primaryKey"`
	Text string
}

var _ = Describe("TransactionManager", func() {
	var (
		db  *gorm.DB
		txm database.TransactionManager
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&note{})).To(Succeed())

		txm = database.NewTransactionManager(db)
		ctx = context.Background()
	})

	count := func() int64 {
		var n int64
		Expect(db.Model(&note{}).Count(&n).Error).To(Succeed())
		return n
	}

	It("commits when the unit of work succeeds", func() {
		err := txm.RunInTx(ctx, func(txCtx context.Context) error {
			return database.GetDB(txCtx, db).Create(&note{Text: "a"}).Error
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(count()).To(Equal(int64(1)))
	})

	It("rolls back every write when the unit of work fails", func() {
		boom := errors.New("boom")
		err := txm.RunInTx(ctx, func(txCtx context.Context) error {
			Expect(database.GetDB(txCtx, db).Create(&note{Text: "a"}).Error).To(Succeed())
			return boom
		})
		Expect(err).To(MatchError(boom))
		Expect(count()).To(BeZero())
	})

	It("joins an outer transaction instead of nesting", func() {
		err := txm.RunInTx(ctx, func(outer context.Context) error {
			if err := txm.RunInTx(outer, func(inner context.Context) error {
				return database.GetDB(inner, db).Create(&note{Text: "inner"}).Error
			}); err != nil {
				return err
			}
			return errors.New("outer fails")
		})
		Expect(err).To(HaveOccurred())
		Expect(count()).To(BeZero())
	})
})
