package repository

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fractionxyz/goapi/base/ctx"
	"github.com/fractionxyz/goapi/domain"
	"github.com/fractionxyz/goapi/domain/ledger"
)

type arenaSuite struct {
	suite.Suite

	im ledger.Repo
}

func TestArenaSuite(t *testing.T) {
	suite.Run(t, new(arenaSuite))
}

func (s *arenaSuite) SetupTest() {
	s.im = NewArena(&ArenaCfg{
		PlatformOwner: "0xAbC0000000000000000000000000000000000001",
		Fees: map[ledger.PositionState]int64{
			ledger.StateRegularSale: 250,
			ledger.StateAuction:     250,
			ledger.StateRaffle:      250,
			ledger.StateLoan:        50,
		},
	})
}

func (s *arenaSuite) TestCreateItem() {
	c := ctx.Background()

	item, err := s.im.CreateItem(c, "0xC0FFEE", 7, "0xCreator")
	s.NoError(err)
	s.Equal(domain.ItemId(1), item.ItemId)
	s.Equal(domain.Address("0xc0ffee"), item.AssetContract)
	s.Equal(domain.Address("0xcreator"), item.Creator)

	_, err = s.im.CreateItem(c, "0xc0ffee", 7, "0xother")
	s.ErrorIs(err, domain.ErrDuplicateItem)

	got, err := s.im.GetItemByToken(c, "0xC0ffEE", 7)
	s.NoError(err)
	s.Equal(item.ItemId, got.ItemId)

	curr, err := s.im.CurrentItemId(c)
	s.NoError(err)
	s.Equal(domain.ItemId(1), curr)
}

func (s *arenaSuite) TestAppendSale() {
	c := ctx.Background()

	item, _ := s.im.CreateItem(c, "0xc0ffee", 1, "0xcreator")
	s.NoError(s.im.AppendSale(c, item.ItemId, ledger.Sale{
		Seller: "0xSeller", Buyer: "0xBuyer", Amount: 3, Price: big.NewInt(30),
	}))

	got, err := s.im.GetItem(c, item.ItemId)
	s.NoError(err)
	s.Len(got.Sales, 1)
	s.Equal(domain.Address("0xseller"), got.Sales[0].Seller)

	s.ErrorIs(s.im.AppendSale(c, 99, ledger.Sale{}), domain.ErrNotFound)
}

func (s *arenaSuite) TestPositionIndices() {
	c := ctx.Background()

	item, _ := s.im.CreateItem(c, "0xc0ffee", 1, "0xcreator")

	avail, err := s.im.CreatePosition(c, &ledger.Position{
		ItemId: item.ItemId,
		Owner:  "0xAlice",
		Amount: 10,
		State:  ledger.StateAvailable,
	})
	s.NoError(err)
	s.Equal(domain.PositionId(1), avail.PositionId)

	listed, err := s.im.CreatePosition(c, &ledger.Position{
		ItemId: item.ItemId,
		Owner:  "0xalice",
		Amount: 5,
		Price:  big.NewInt(100),
		State:  ledger.StateRegularSale,
	})
	s.NoError(err)

	got, err := s.im.AvailablePosition(c, item.ItemId, "0xALICE")
	s.NoError(err)
	s.Equal(avail.PositionId, got.PositionId)

	byState, err := s.im.FindPositions(c, ledger.WithState(ledger.StateRegularSale))
	s.NoError(err)
	s.Len(byState, 1)
	s.Equal(listed.PositionId, byState[0].PositionId)

	byOwner, err := s.im.CountPositions(c, ledger.WithOwner("0xAlice"))
	s.NoError(err)
	s.Equal(2, byOwner)

	gotItem, err := s.im.GetItem(c, item.ItemId)
	s.NoError(err)
	s.Equal(int64(2), gotItem.PositionCount)
}

func (s *arenaSuite) TestSavePositionReindexes() {
	c := ctx.Background()

	item, _ := s.im.CreateItem(c, "0xc0ffee", 1, "0xcreator")
	p, _ := s.im.CreatePosition(c, &ledger.Position{
		ItemId: item.ItemId, Owner: "0xalice", Amount: 10, State: ledger.StateAvailable,
	})

	p.State = ledger.StateAuction
	s.NoError(s.im.SavePosition(c, p))

	_, err := s.im.AvailablePosition(c, item.ItemId, "0xalice")
	s.ErrorIs(err, domain.ErrNotFound)

	n, err := s.im.CountPositions(c, ledger.WithState(ledger.StateAuction))
	s.NoError(err)
	s.Equal(1, n)

	s.NoError(s.im.RemovePosition(c, p.PositionId))
	_, err = s.im.GetPosition(c, p.PositionId)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *arenaSuite) TestFindPositionsPagination() {
	c := ctx.Background()

	item, _ := s.im.CreateItem(c, "0xc0ffee", 1, "0xcreator")
	for i := 0; i < 5; i++ {
		_, err := s.im.CreatePosition(c, &ledger.Position{
			ItemId: item.ItemId, Owner: "0xalice", Amount: 1, State: ledger.StateRegularSale,
		})
		s.NoError(err)
	}

	page, err := s.im.FindPositions(c,
		ledger.WithItemId(item.ItemId),
		ledger.WithSortDir(domain.SortDirDesc),
		ledger.WithPagination(0, 2),
	)
	s.NoError(err)
	s.Len(page, 2)
	s.Equal(domain.PositionId(5), page[0].PositionId)
	s.Equal(domain.PositionId(4), page[1].PositionId)

	empty, err := s.im.FindPositions(c,
		ledger.WithItemId(item.ItemId),
		ledger.WithPagination(10, 2),
	)
	s.NoError(err)
	s.Len(empty, 0)
}

func (s *arenaSuite) TestBalances() {
	c := ctx.Background()

	s.NoError(s.im.AddBalance(c, "0xAlice", big.NewInt(100)))
	s.NoError(s.im.AddBalance(c, "0xalice", big.NewInt(50)))

	b, err := s.im.Balance(c, "0xALICE")
	s.NoError(err)
	s.Equal(big.NewInt(150), b)

	all, err := s.im.Balances(c)
	s.NoError(err)
	s.Len(all, 1)

	taken, err := s.im.TakeBalance(c, "0xalice")
	s.NoError(err)
	s.Equal(big.NewInt(150), taken)

	b, err = s.im.Balance(c, "0xalice")
	s.NoError(err)
	s.Equal(0, b.Sign())
}

func (s *arenaSuite) TestAdminState() {
	c := ctx.Background()

	owner, err := s.im.PlatformOwner(c)
	s.NoError(err)
	s.Equal(domain.Address("0xabc0000000000000000000000000000000000001"), owner)

	bps, err := s.im.MarketFee(c, ledger.StateLoan)
	s.NoError(err)
	s.Equal(int64(50), bps)

	s.NoError(s.im.SetMarketFee(c, ledger.StateLoan, 100))
	bps, _ = s.im.MarketFee(c, ledger.StateLoan)
	s.Equal(int64(100), bps)

	s.ErrorIs(s.im.SetMarketFee(c, ledger.StateAvailable, 100), domain.ErrBadParamInput)

	retired, err := s.im.Retired(c)
	s.NoError(err)
	s.False(retired)
	s.NoError(s.im.SetRetired(c))
	retired, _ = s.im.Retired(c)
	s.True(retired)
}

func (s *arenaSuite) TestPositionReadsDetachedFromStore() {
	c := ctx.Background()

	item, err := s.im.CreateItem(c, "0xc0ffee", 1, "0xcreator")
	s.Require().NoError(err)

	created, err := s.im.CreatePosition(c, &ledger.Position{
		ItemId: item.ItemId,
		Owner:  "0xalice",
		Amount: 3,
		State:  ledger.StateRaffle,
		Raffle: &ledger.RaffleData{
			TotalValue: big.NewInt(100),
			Entries: []ledger.RaffleEntry{
				{Address: "0xbob", Amount: big.NewInt(100)},
			},
			TotalAddresses: 1,
		},
	})
	s.Require().NoError(err)

	snapshot, err := s.im.GetPosition(c, created.PositionId)
	s.Require().NoError(err)

	// save a grown raffle; the earlier read must keep its own payload
	grown, _ := s.im.GetPosition(c, created.PositionId)
	grown.Raffle.TotalValue = big.NewInt(250)
	grown.Raffle.Entries = append(grown.Raffle.Entries, ledger.RaffleEntry{Address: "0xcarol", Amount: big.NewInt(150)})
	grown.Raffle.TotalAddresses = 2
	s.Require().NoError(s.im.SavePosition(c, grown))

	s.Equal(big.NewInt(100), snapshot.Raffle.TotalValue)
	s.Len(snapshot.Raffle.Entries, 1)

	// mutating a returned copy never writes through to the store
	snapshot.Raffle.Entries[0].Amount.SetInt64(7)
	stored, err := s.im.GetPosition(c, created.PositionId)
	s.Require().NoError(err)
	s.Equal(big.NewInt(100), stored.Raffle.Entries[0].Amount)
	s.Equal(big.NewInt(250), stored.Raffle.TotalValue)
}
