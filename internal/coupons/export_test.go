package coupons

var ListStatements = listStatements
