package usecases

import "coffee-rewards.backend/internal/domain/entities"

var defaultRewards = []entities.Reward{
	{ID: "reward1", Name: "Free Artisan Espresso", PointsRequired: 25, Description: "Rich & Bold.", Icon: "Coffee"},
	{ID: "reward2", Name: "Gourmet Muffin - 50% Off", PointsRequired: 15, Description: "Freshly baked daily.", Icon: "Gift"},
	{ID: "reward3", Name: "$2 Off Any Large Drink", PointsRequired: 20, Description: "Your choice, your discount.", Icon: "Coffee"},
	{ID: "reward4", Name: "Bag of House Blend Beans", PointsRequired: 75, Description: "Take the taste home (200g).", Icon: "Gift"},
	{ID: "pastry", Name: "Fresh Croissant", PointsRequired: 20, Description: "Buttery, flaky, and perfectly golden", Icon: "Coffee"},
	{ID: "cappuccino", Name: "Deluxe Cappuccino", PointsRequired: 30, Description: "Rich espresso with perfectly steamed milk foam", Icon: "Coffee"},
}

// One point per dollar, rounded.
var defaultMenu = []entities.MenuItem{
	{ID: 1, Name: "Espresso", Description: "Rich and aromatic, a true classic.", Price: "2.50", PointsToEarn: 2},
	{ID: 2, Name: "Cappuccino", Description: "Espresso with steamed milk foam.", Price: "3.50", PointsToEarn: 3},
	{ID: 3, Name: "Latte", Description: "A creamy blend of espresso and steamed milk.", Price: "4.00", PointsToEarn: 4},
	{ID: 4, Name: "Croissant", Description: "Buttery and flaky, fresh from the oven.", Price: "3.00", PointsToEarn: 3},
	{ID: 5, Name: "Blueberry Muffin", Description: "Packed with fresh blueberries.", Price: "3.25", PointsToEarn: 3},
	{ID: 6, Name: "Iced Coffee", Description: "Chilled and refreshing.", Price: "3.75", PointsToEarn: 4},
}

// RewardCatalog serves the static reward and menu listings
type RewardCatalog struct {
	rewards []entities.Reward
	menu    []entities.MenuItem
}

// NewRewardCatalog returns the built-in catalog
func NewRewardCatalog() *RewardCatalog {
	return &RewardCatalog{rewards: defaultRewards, menu: defaultMenu}
}

// Rewards returns a copy of the catalog in display order.
func (c *RewardCatalog) Rewards() []entities.Reward {
	out := make([]entities.Reward, len(c.rewards))
	copy(out, c.rewards)
	return out
}

// Reward looks a reward up by id.
func (c *RewardCatalog) Reward(id string) (entities.Reward, bool) {
	for _, r := range c.rewards {
		if r.ID == id {
			return r, true
		}
	}
	return entities.Reward{}, false
}

// Menu returns a copy of the purchasable items.
func (c *RewardCatalog) Menu() []entities.MenuItem {
	out := make([]entities.MenuItem, len(c.menu))
	copy(out, c.menu)
	return out
}

// MenuItem looks a menu item up by id.
func (c *RewardCatalog) MenuItem(id int) (entities.MenuItem, bool) {
	for _, m := range c.menu {
		if m.ID == id {
			return m, true
		}
	}
	return entities.MenuItem{}, false
}
