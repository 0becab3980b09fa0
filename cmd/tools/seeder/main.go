package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type seedPackage struct {
	slug        string
	title       string
	destination string
	basePrice   int64
	listPrice   int64
	perDayPrice int64
	flightPrice int64
	visaFee     int64
	baseDays    int
}

type seedCoupon struct {
	code  string
	title string
	bps   int32
}

var packages = []seedPackage{
	{"bali-getaway", "Bali Getaway", "Bali, Indonesia", 8000000, 9500000, 1000000, 2500000, 0, 3},
	{"tokyo-cherry-blossom", "Tokyo Cherry Blossom", "Tokyo, Japan", 15000000, 18000000, 2000000, 6500000, 550000, 5},
	{"umrah-standard", "Umrah Standard", "Mecca, Saudi Arabia", 25000000, 28000000, 1500000, 9000000, 1200000, 9},
	{"labuan-bajo-sailing", "Labuan Bajo Sailing", "Labuan Bajo, Indonesia", 6500000, 7800000, 900000, 2100000, 0, 4},
}

var coupons = []seedCoupon{
	{"WELCOME10", "Welcome 10%", 1000},
	{"TRIP15", "Trip 15%", 1500},
	{"LOYAL20", "Loyal 20%", 2000},
}

func main() {
	reset := flag.Bool("reset", false, "delete existing seed rows before inserting")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	if *reset {
		for _, pkg := range packages {
			if _, err := pool.Exec(ctx, `DELETE FROM packages WHERE slug = $1`, pkg.slug); err != nil {
				log.Fatalf("reset package %s: %v", pkg.slug, err)
			}
		}
		for _, c := range coupons {
			if _, err := pool.Exec(ctx, `DELETE FROM coupons WHERE code = $1`, c.code); err != nil {
				log.Fatalf("reset coupon %s: %v", c.code, err)
			}
		}
	}

	for _, pkg := range packages {
		_, err := pool.Exec(ctx, `
INSERT INTO packages (slug, title, destination, base_price, list_price, per_day_price, flight_price, visa_fee, base_days)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (slug) DO UPDATE SET
  title = EXCLUDED.title,
  destination = EXCLUDED.destination,
  base_price = EXCLUDED.base_price,
  list_price = EXCLUDED.list_price,
  per_day_price = EXCLUDED.per_day_price,
  flight_price = EXCLUDED.flight_price,
  visa_fee = EXCLUDED.visa_fee,
  base_days = EXCLUDED.base_days`,
			pkg.slug, pkg.title, pkg.destination, pkg.basePrice, pkg.listPrice,
			pkg.perDayPrice, pkg.flightPrice, pkg.visaFee, pkg.baseDays)
		if err != nil {
			log.Fatalf("seed package %s: %v", pkg.slug, err)
		}
		log.Printf("seeded package %s", pkg.slug)
	}

	for _, c := range coupons {
		_, err := pool.Exec(ctx, `
INSERT INTO coupons (code, title, bps, used)
VALUES ($1, $2, $3, FALSE)
ON CONFLICT (code) DO UPDATE SET title = EXCLUDED.title, bps = EXCLUDED.bps`,
			c.code, c.title, c.bps)
		if err != nil {
			log.Fatalf("seed coupon %s: %v", c.code, err)
		}
		log.Printf("seeded coupon %s", c.code)
	}

	log.Println("seeding complete")
}
